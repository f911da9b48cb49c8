package optimize

// StrategyKind names one of the three optimization presets. The presets are
// structurally identical runs differing only in cap band and labeling.
type StrategyKind string

const (
	// MostAffordable searches below the user's premium cap for the cheapest
	// worthwhile design.
	MostAffordable StrategyKind = "most_affordable"
	// BestCoverage pins the cap exactly at the user's budget.
	BestCoverage StrategyKind = "best_coverage"
	// PremiumChoice is allowed to exceed the user's cap for richer coverage.
	PremiumChoice StrategyKind = "premium_choice"
)

// Label returns the user-facing strategy name.
func (k StrategyKind) Label() string {
	switch k {
	case MostAffordable:
		return "Most Affordable"
	case BestCoverage:
		return "Best Coverage"
	case PremiumChoice:
		return "Premium Choice"
	}
	return string(k)
}

// Description returns the user-facing strategy summary.
func (k StrategyKind) Description() string {
	switch k {
	case MostAffordable:
		return "Optimized for lowest cost within your budget"
	case BestCoverage:
		return "Balanced optimization for best overall value"
	case PremiumChoice:
		return "Enhanced coverage with slightly higher premium"
	}
	return ""
}

// Premium-cap band boundaries shared by the presets.
const (
	minCapRatio    = 0.02  // floor for the cost-minimizing band
	maxCapRatio    = 0.15  // ceiling for the premium-flexible band
	capBandGap     = 0.005 // half-gap keeping the flexible bands off the user cap
	minCapBandSpan = 0.01  // degenerate bands are widened to at least this
)

// strategyBand is one preset's resolved cap band. Fixed == true pins the cap
// at FixedCap and ignores the ratio range.
type strategyBand struct {
	Kind     StrategyKind
	MinRatio float64
	MaxRatio float64
	Fixed    bool
	FixedCap float64
}

// strategyBands derives the three presets from the user's premium cap and sum
// insured. Degenerate bands are widened by the minimum span rather than
// dropped, matching the legacy behavior.
func strategyBands(premiumCap, sumInsured float64) []strategyBand {
	r := premiumCap / sumInsured

	affordable := strategyBand{
		Kind:     MostAffordable,
		MinRatio: minCapRatio,
		MaxRatio: r - capBandGap,
	}
	if affordable.MaxRatio < minCapRatio {
		affordable.MaxRatio = minCapRatio
	}
	if affordable.MaxRatio <= affordable.MinRatio {
		affordable.MaxRatio = affordable.MinRatio + minCapBandSpan
	}

	flexible := strategyBand{
		Kind:     PremiumChoice,
		MinRatio: r + capBandGap,
		MaxRatio: maxCapRatio,
	}
	if flexible.MinRatio >= flexible.MaxRatio {
		flexible.MinRatio = flexible.MaxRatio - minCapBandSpan
	}

	return []strategyBand{
		affordable,
		{Kind: BestCoverage, Fixed: true, FixedCap: premiumCap},
		flexible,
	}
}
