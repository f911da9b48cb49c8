package optimize

import (
	"fmt"

	"github.com/agrisure/weatherindex/internal/pricing"
	"github.com/agrisure/weatherindex/internal/product"
)

// TriggerDisplay is one trigger summarized for the client.
type TriggerDisplay struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Payout string `json:"payout"`
}

// PeriodDisplay groups a period's final perils for the client.
type PeriodDisplay struct {
	PeriodName string          `json:"period_name"`
	StartDay   int             `json:"start_day"`
	EndDay     int             `json:"end_day"`
	Perils     []product.Peril `json:"perils"`
}

// StrategyResult is one strategy's accepted configuration in the wire shape
// consumed by the client.
type StrategyResult struct {
	OptionType           string                  `json:"optionType"`
	Label                string                  `json:"label"`
	Description          string                  `json:"description"`
	LossRatio            float64                 `json:"lossRatio"`
	ExpectedPayout       float64                 `json:"expectedPayout"`
	PremiumRate          float64                 `json:"premiumRate"`
	PremiumCost          float64                 `json:"premiumCost"`
	Triggers             []TriggerDisplay        `json:"triggers"`
	RiskLevel            string                  `json:"riskLevel"`
	Score                float64                 `json:"score"`
	Periods              []PeriodDisplay         `json:"periods"`
	PeriodBreakdown      []pricing.SlotBreakdown `json:"period_breakdown"`
	YearlyResults        []pricing.YearResult    `json:"yearly_results"`
	MaxPayout            float64                 `json:"max_payout"`
	PayoutYears          int                     `json:"payout_years"`
	CoverageScore        float64                 `json:"coverage_score"`
	PayoutStability      float64                 `json:"payout_stability_score"`
	CoveragePenalty      float64                 `json:"coverage_penalty"`
	PeriodsWithNoPayouts int                     `json:"periods_with_no_payouts"`
	PremiumIncrease      string                  `json:"premiumIncrease,omitempty"`
	Error                string                  `json:"error,omitempty"`
}

// buildResult formats an accepted candidate for the client.
func buildResult(kind StrategyKind, c *Candidate, userPremiumCap float64) StrategyResult {
	res := c.Result
	out := StrategyResult{
		OptionType:           string(kind),
		Label:                kind.Label(),
		Description:          kind.Description(),
		LossRatio:            round4(res.LossRatio),
		ExpectedPayout:       round2(res.AvgPayout),
		PremiumRate:          round4(res.PremiumRate),
		PremiumCost:          round2(res.LoadedPremium),
		Triggers:             formatTriggers(c.Design),
		RiskLevel:            riskLevel(res.LossRatio),
		Score:                round4(c.Score),
		Periods:              formatPeriods(c.Design),
		PeriodBreakdown:      res.PeriodBreakdown,
		YearlyResults:        res.YearlyResults,
		MaxPayout:            round2(res.MaxPayout),
		PayoutYears:          res.PayoutYears,
		CoverageScore:        round4(res.CoverageScore),
		PayoutStability:      round4(res.PayoutStability),
		CoveragePenalty:      round4(res.CoveragePenalty),
		PeriodsWithNoPayouts: res.PeriodsWithNoPayouts,
	}

	if kind == PremiumChoice && userPremiumCap > 0 {
		cost := round2(res.LoadedPremium)
		out.PremiumIncrease = fmt.Sprintf("+$%.0f (%.1f%% vs %.1f%%)",
			cost-userPremiumCap,
			cost/c.Design.SumInsured*100,
			userPremiumCap/c.Design.SumInsured*100)
	}
	return out
}

func formatTriggers(design product.Design) []TriggerDisplay {
	var out []TriggerDisplay
	for _, period := range design.Periods {
		for _, p := range period.Perils {
			cmp := "≥"
			if p.Type.IsDeficit() {
				cmp = "≤"
			}
			out = append(out, TriggerDisplay{
				Type:   p.Type.Display(),
				Value:  fmt.Sprintf("%s %d%s", cmp, int(p.Trigger), p.Type.Unit()),
				Payout: fmt.Sprintf("$%.2f", p.MaxPayout),
			})
		}
	}
	return out
}

func formatPeriods(design product.Design) []PeriodDisplay {
	out := make([]PeriodDisplay, len(design.Periods))
	for i, period := range design.Periods {
		perils := make([]product.Peril, len(period.Perils))
		for j, p := range period.Perils {
			p.UnitPayout = round2(p.UnitPayout)
			p.MaxPayout = round2(p.MaxPayout)
			p.AllocatedSI = round2(p.AllocatedSI)
			perils[j] = p
		}
		out[i] = PeriodDisplay{
			PeriodName: fmt.Sprintf("Period %d", i+1),
			StartDay:   period.StartDay,
			EndDay:     period.EndDay,
			Perils:     perils,
		}
	}
	return out
}

// riskLevel buckets a configuration by its loss ratio.
func riskLevel(lossRatio float64) string {
	switch {
	case lossRatio < 0.7:
		return "LOW RISK"
	case lossRatio < 0.9:
		return "MEDIUM RISK"
	default:
		return "HIGH RISK"
	}
}
