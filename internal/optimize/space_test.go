package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisure/weatherindex/internal/product"
)

func twoPerilsOnePeriod() []product.CoveragePeriod {
	return []product.CoveragePeriod{{
		StartDay: 100, EndDay: 180,
		Perils: []product.Peril{{Type: product.LowRainfall}, {Type: product.ExcessRainfall}},
	}}
}

func TestSpaceAllocationPartitionsSumInsured(t *testing.T) {
	sp, err := NewSpace(twoPerilsOnePeriod(), 100, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, sp.Slots, 2)

	for _, split := range splitOptions {
		params := Params{
			SplitRatio: split,
			Slots:      []SlotParams{{Trigger: 100, Duration: 10, UnitPayout: 1}, {Trigger: 60, Duration: 2, UnitPayout: 1}},
		}
		design := sp.Build(params)

		var total float64
		for _, period := range design.Periods {
			for _, peril := range period.Perils {
				total += peril.AllocatedSI
			}
		}
		assert.InDelta(t, 100.0, total, 1e-9, "split %.2f must partition the whole SI", split)
		assert.InDelta(t, 100*split, design.Periods[0].Perils[0].AllocatedSI, 1e-9)
	}
}

func TestSpaceFiftyFiftySplitExact(t *testing.T) {
	sp, err := NewSpace(twoPerilsOnePeriod(), 100, 0, 0, 10)
	require.NoError(t, err)

	params := Params{
		SplitRatio: 0.5,
		Slots:      []SlotParams{{Trigger: 100, Duration: 10, UnitPayout: 1}, {Trigger: 60, Duration: 2, UnitPayout: 1}},
	}
	design := sp.Build(params)
	assert.Equal(t, 50.0, design.Periods[0].Perils[0].AllocatedSI)
	assert.Equal(t, 50.0, design.Periods[0].Perils[1].AllocatedSI)
	assert.Equal(t, 50.0, design.Periods[0].Perils[0].MaxPayout)
}

func TestSpaceSingleTypeTakesWhole(t *testing.T) {
	base := []product.CoveragePeriod{
		{StartDay: 0, EndDay: 90, Perils: []product.Peril{{Type: product.LowRainfall}}},
		{StartDay: 180, EndDay: 270, Perils: []product.Peril{{Type: product.LowRainfall}}},
	}
	sp, err := NewSpace(base, 100, 0, 0, 10)
	require.NoError(t, err)
	assert.Nil(t, sp.SplitOptions)

	design := sp.Build(Params{Slots: []SlotParams{
		{Trigger: 100, Duration: 10, UnitPayout: 1},
		{Trigger: 100, Duration: 10, UnitPayout: 1},
	}})
	// One type across two periods: the allocation halves per period.
	assert.Equal(t, 50.0, design.Periods[0].Perils[0].AllocatedSI)
	assert.Equal(t, 50.0, design.Periods[1].Perils[0].AllocatedSI)
}

func TestSpaceTemperaturePairSplit(t *testing.T) {
	base := []product.CoveragePeriod{{
		StartDay: 0, EndDay: 90,
		Perils: []product.Peril{{Type: product.HighTemperature}, {Type: product.LowTemperature}},
	}}
	sp, err := NewSpace(base, 100, 0, 0, 10)
	require.NoError(t, err)
	require.NotNil(t, sp.SplitOptions)

	design := sp.Build(Params{SplitRatio: 0.6, Slots: []SlotParams{
		{Trigger: 35, Duration: 3, UnitPayout: 1},
		{Trigger: 22, Duration: 3, UnitPayout: 1},
	}})
	// The deficit side of the canonical pair receives the sampled ratio,
	// regardless of declaration order.
	assert.Equal(t, 40.0, design.Periods[0].Perils[0].AllocatedSI) // HTI
	assert.Equal(t, 60.0, design.Periods[0].Perils[1].AllocatedSI) // LTI
}

func TestSpaceDurationClampedToPeriodLength(t *testing.T) {
	base := []product.CoveragePeriod{{
		StartDay: 100, EndDay: 111, // 12 days, shorter than LRI's 30-day max
		Perils: []product.Peril{{Type: product.LowRainfall}},
	}}
	sp, err := NewSpace(base, 100, 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, sp.Slots[0].DurationMax)
	assert.Equal(t, 5, sp.Slots[0].DurationMin)
}

func TestSpaceRejectsPeriodShorterThanMinWindow(t *testing.T) {
	base := []product.CoveragePeriod{{
		StartDay: 100, EndDay: 102, // 3 days < LRI's 5-day minimum
		Perils: []product.Peril{{Type: product.LowRainfall}},
	}}
	_, err := NewSpace(base, 100, 0, 0, 10)
	var verr *product.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSpaceCapRatioGrid(t *testing.T) {
	sp, err := NewSpace(twoPerilsOnePeriod(), 1000, 0.02, 0.025, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.02, 0.021, 0.022, 0.023, 0.024, 0.025}, sp.CapRatios)

	cap := sp.Cap(Params{CapRatio: 0.021})
	assert.Equal(t, 21.0, cap)
}

func TestSpaceFixedCap(t *testing.T) {
	sp, err := NewSpace(twoPerilsOnePeriod(), 1000, 0, 0, 55)
	require.NoError(t, err)
	assert.Nil(t, sp.CapRatios)
	assert.Equal(t, 55.0, sp.Cap(Params{}))
}

func TestUnitPayoutGrid(t *testing.T) {
	grid := unitPayoutGrid()
	require.Len(t, grid, 51)
	assert.Equal(t, 0.50, grid[0])
	assert.Equal(t, 3.00, grid[50])
	assert.Equal(t, 0.55, grid[1])
}
