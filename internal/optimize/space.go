// Package optimize searches the product design space for configurations that
// maximize a composite value score under a premium-cap constraint, and
// orchestrates the three pricing strategies offered to the user.
package optimize

import (
	"fmt"
	"math"

	"github.com/agrisure/weatherindex/internal/product"
)

// slotSpec is the sampling range for one period/peril slot. Duration ranges
// are clamped so a window never exceeds its owning period.
type slotSpec struct {
	PeriodIndex int
	Type        product.PerilType
	TriggerMin  int
	TriggerMax  int
	DurationMin int
	DurationMax int
}

// Space is the full parameter space for one optimization run: per-slot
// trigger/duration/unit-payout ranges, the discrete sum-insured split, and
// (for cap-flexible strategies) the premium-cap ratio grid.
type Space struct {
	Slots        []slotSpec
	SumInsured   float64
	SplitOptions []float64 // nil when the split is not sampled
	CapRatios    []float64 // nil when the cap is fixed
	FixedCap     float64

	base      []product.CoveragePeriod
	firstType product.PerilType // receives the sampled split ratio
	typeCount map[product.PerilType]int
}

// splitOptions is the discrete sum-insured split sampled for a canonical
// deficit/excess pair.
var splitOptions = []float64{0.40, 0.50, 0.60}

// unitPayoutGrid returns the discrete unit payout values, 0.50 to 3.00 in
// 0.05 steps, so reported payouts stay at two decimal places.
func unitPayoutGrid() []float64 {
	grid := make([]float64, 0, 51)
	for i := 10; i <= 60; i++ {
		grid = append(grid, round2(float64(i)*0.05))
	}
	return grid
}

// triggerBounds returns the trigger and duration ranges for a peril type.
func triggerBounds(t product.PerilType) (trigMin, trigMax, durMin, durMax int) {
	switch t {
	case product.LowRainfall:
		return 20, 150, 5, 30
	case product.ExcessRainfall:
		return 40, 200, 1, 5
	case product.LowTemperature:
		return 20, 30, 1, 7
	case product.HighTemperature:
		return 30, 40, 1, 10
	}
	return 0, 0, 1, 1
}

// NewSpace builds the parameter space for a set of base coverage periods.
// The cap grid is derived from [capMin, capMax] ratios at 0.001 granularity;
// pass capMin == capMax <= 0 along with fixedCap for a constant-cap strategy.
func NewSpace(base []product.CoveragePeriod, sumInsured float64, capMin, capMax, fixedCap float64) (*Space, error) {
	sp := &Space{
		SumInsured: sumInsured,
		FixedCap:   fixedCap,
		base:       base,
		typeCount:  make(map[product.PerilType]int),
	}

	for pi, period := range base {
		if len(period.Perils) == 0 || len(period.Perils) > 2 {
			return nil, &product.ValidationError{
				Field: "periods.perils",
				Value: fmt.Sprintf("%d perils in period %d", len(period.Perils), pi),
			}
		}
		for _, peril := range period.Perils {
			tMin, tMax, dMin, dMax := triggerBounds(peril.Type)
			if period.Length() < dMax {
				dMax = period.Length()
			}
			if dMax < dMin {
				return nil, &product.ValidationError{
					Field: "periods",
					Value: fmt.Sprintf("period %d spans %d days, shorter than the minimum %d-day window for %s",
						pi, period.Length(), dMin, peril.Type),
				}
			}
			sp.Slots = append(sp.Slots, slotSpec{
				PeriodIndex: pi,
				Type:        peril.Type,
				TriggerMin:  tMin,
				TriggerMax:  tMax,
				DurationMin: dMin,
				DurationMax: dMax,
			})
			sp.typeCount[peril.Type]++
		}
	}

	sp.resolveSplit()

	if capMax > 0 {
		for r := capMin; r <= capMax+1e-9; r += 0.001 {
			sp.CapRatios = append(sp.CapRatios, round4(r))
		}
	}
	return sp, nil
}

// resolveSplit decides how the sum insured partitions across peril types.
// Exactly two types sample a discrete ratio for the first of the canonical
// pair; more than two split equally; a single type takes the whole.
func (sp *Space) resolveSplit() {
	switch len(sp.typeCount) {
	case 2:
		deficit, excess := product.PairFor(product.DataPrecipitation)
		if sp.typeCount[deficit] == 0 || sp.typeCount[excess] == 0 {
			deficit, excess = product.PairFor(product.DataTemperature)
		}
		if sp.typeCount[deficit] > 0 && sp.typeCount[excess] > 0 {
			sp.firstType = deficit
		} else {
			// Non-canonical combination: first type seen takes the ratio.
			sp.firstType = sp.Slots[0].Type
		}
		sp.SplitOptions = splitOptions
	}
}

// slotShare is the sum-insured share for one slot of a type: the type's
// share of SI divided equally among that type's slots, so shares always
// partition the full sum insured.
func (sp *Space) slotShare(t product.PerilType, splitRatio float64) float64 {
	n := len(sp.typeCount)
	var typeShare float64
	switch {
	case n == 1:
		typeShare = 1.0
	case n == 2:
		if t == sp.firstType {
			typeShare = splitRatio
		} else {
			typeShare = 1.0 - splitRatio
		}
	default:
		typeShare = 1.0 / float64(n)
	}
	return sp.SumInsured * typeShare / float64(sp.typeCount[t])
}

// Params is one sampled point in the space.
type Params struct {
	SplitRatio float64 // share of SI for the first canonical type; 0 if unused
	CapRatio   float64 // premium cap as a fraction of SI; 0 if cap is fixed
	Slots      []SlotParams
}

// SlotParams holds the sampled values for one period/peril slot.
type SlotParams struct {
	Trigger    int
	Duration   int
	UnitPayout float64
}

// Cap resolves the premium cap for a sampled point.
func (sp *Space) Cap(p Params) float64 {
	if len(sp.CapRatios) == 0 {
		return sp.FixedCap
	}
	return round2(sp.SumInsured * p.CapRatio)
}

// Build assembles the concrete design for a sampled point. Per-slot max
// payout equals the slot's sum-insured share, so the tightest payout cap is
// always the allocation.
func (sp *Space) Build(p Params) product.Design {
	design := product.Design{
		SumInsured: sp.SumInsured,
		Periods:    make([]product.CoveragePeriod, len(sp.base)),
	}
	for i, period := range sp.base {
		design.Periods[i] = product.CoveragePeriod{StartDay: period.StartDay, EndDay: period.EndDay}
	}

	split := p.SplitRatio
	if split == 0 {
		split = 0.5
	}
	for si, slot := range sp.Slots {
		alloc := sp.slotShare(slot.Type, split)
		peril := product.Peril{
			Type:        slot.Type,
			Trigger:     float64(p.Slots[si].Trigger),
			Duration:    p.Slots[si].Duration,
			UnitPayout:  p.Slots[si].UnitPayout,
			MaxPayout:   round2(alloc),
			AllocatedSI: alloc,
		}
		design.Periods[slot.PeriodIndex].Perils = append(design.Periods[slot.PeriodIndex].Perils, peril)
	}
	return design
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
