package pricing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisure/weatherindex/internal/product"
	"github.com/agrisure/weatherindex/internal/weather"
)

var testLoc = product.Location{Province: "Kandal", District: "Kandal", Commune: "Sampov"}

// newTestStore writes a 30-year precipitation fixture where fn(year, doy)
// yields the daily value (doy is 0-indexed), and returns a store over it.
func newTestStore(t *testing.T, startYear, years int, fn func(year, doy int) float64) *weather.Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "precipitation", "Cambodia", "Kandal.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	fmt.Fprintln(f, "Date,Kandal_Sampov")
	for d := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() < startYear+years; d = d.AddDate(0, 0, 1) {
		fmt.Fprintf(f, "%s,%.4f\n", d.Format("2006-01-02"), fn(d.Year(), d.YearDay()-1))
	}
	return weather.NewStore(dir, "Cambodia")
}

// TestPriceSingleLowRainfallPeril replays a single LRI design where year i
// rains i mm/day, so the minimum 15-day rolling sum is exactly 15*i and the
// triggered years and payouts are known in closed form.
func TestPriceSingleLowRainfallPeril(t *testing.T) {
	store := newTestStore(t, 1990, 30, func(year, doy int) float64 {
		return float64(year - 1990)
	})
	engine := NewEngine(store, Config{Years: 30, AdminLoading: 0.15, ProfitLoading: 0.075})

	design := product.Design{
		SumInsured: 120,
		Periods: []product.CoveragePeriod{{
			StartDay: 121, EndDay: 151,
			Perils: []product.Peril{{
				Type: product.LowRainfall, Trigger: 120, Duration: 15,
				UnitPayout: 1.0, MaxPayout: 120, AllocatedSI: 120,
			}},
		}},
	}

	res, err := engine.Price(design, testLoc, product.DataPrecipitation)
	require.NoError(t, err)

	// 15*i < 120 for i in 0..7: eight payout years.
	assert.Equal(t, 8, res.PayoutYears)
	assert.InDelta(t, 8.0/30.0, res.CoverageScore, 1e-12)

	// Payout for year i (i<8): min(120 - 15i, 120, 120) = 120 - 15i.
	var sum float64
	for i := 0; i < 8; i++ {
		sum += 120 - 15*float64(i)
	}
	assert.InDelta(t, sum/30, res.AvgPayout, 1e-9)
	assert.Equal(t, 120.0, res.MaxPayout)

	assert.InDelta(t, res.AvgPayout*1.225, res.LoadedPremium, 1e-9)
	assert.InDelta(t, res.LoadedPremium/120, res.PremiumRate, 1e-12)
	assert.InDelta(t, res.AvgPayout/res.LoadedPremium, res.LossRatio, 1e-12)

	require.Len(t, res.YearlyResults, 30)
	require.Len(t, res.PeriodBreakdown, 1)
	assert.Equal(t, 8, res.PeriodBreakdown[0].PayoutYears)
	assert.Zero(t, res.PeriodsWithNoPayouts)
	assert.Zero(t, res.CoveragePenalty)
}

func TestPriceTwoPerilAllocationCaps(t *testing.T) {
	// Always bone dry: LRI pays every year; ERI never fires.
	store := newTestStore(t, 1990, 30, func(year, doy int) float64 { return 0 })
	engine := NewEngine(store, Config{Years: 30, AdminLoading: 0.15, ProfitLoading: 0.075})

	design := product.Design{
		SumInsured: 100,
		Periods: []product.CoveragePeriod{{
			StartDay: 100, EndDay: 160,
			Perils: []product.Peril{
				{Type: product.LowRainfall, Trigger: 150, Duration: 10,
					UnitPayout: 3.0, MaxPayout: 50, AllocatedSI: 50},
				{Type: product.ExcessRainfall, Trigger: 40, Duration: 2,
					UnitPayout: 3.0, MaxPayout: 50, AllocatedSI: 50},
			},
		}},
	}

	res, err := engine.Price(design, testLoc, product.DataPrecipitation)
	require.NoError(t, err)

	// Raw LRI payout would be 150*3 = 450; the allocated share caps it at 50.
	for _, yr := range res.YearlyResults {
		assert.Equal(t, 50.0, yr.Periods[0].Perils[0].Payout)
		assert.Zero(t, yr.Periods[0].Perils[1].Payout)
		assert.Equal(t, 50.0, yr.TotalPayout)
	}

	// The dead ERI slot drives the coverage penalty.
	assert.Equal(t, 1, res.PeriodsWithNoPayouts)
	assert.InDelta(t, 0.5, res.CoveragePenalty, 1e-12)
}

func TestPriceYearlyTotalCappedAtSumInsured(t *testing.T) {
	store := newTestStore(t, 1990, 30, func(year, doy int) float64 { return 0 })
	engine := NewEngine(store, Config{Years: 30, AdminLoading: 0.15, ProfitLoading: 0.075})

	// Two periods each paying up to 80 against a sum insured of 100.
	peril := product.Peril{Type: product.LowRainfall, Trigger: 100, Duration: 5,
		UnitPayout: 1.0, MaxPayout: 80, AllocatedSI: 80}
	design := product.Design{
		SumInsured: 100,
		Periods: []product.CoveragePeriod{
			{StartDay: 0, EndDay: 59, Perils: []product.Peril{peril}},
			{StartDay: 200, EndDay: 259, Perils: []product.Peril{peril}},
		},
	}

	res, err := engine.Price(design, testLoc, product.DataPrecipitation)
	require.NoError(t, err)
	for _, yr := range res.YearlyResults {
		assert.Equal(t, 100.0, yr.TotalPayout, "yearly total must be capped at sum insured")
	}
	assert.Equal(t, 100.0, res.MaxPayout)
	assert.Equal(t, 100.0, res.AvgPayout)
	assert.InDelta(t, 1.0, res.PayoutStability, 1e-12, "identical totals have zero stdev")
}

func TestPriceWraparoundPeriod(t *testing.T) {
	// Rain only in January; a Dec-to-Feb window must see it.
	store := newTestStore(t, 1990, 31, func(year, doy int) float64 {
		if doy < 31 {
			return 20
		}
		return 0
	})
	engine := NewEngine(store, Config{Years: 30, AdminLoading: 0.15, ProfitLoading: 0.075})

	design := product.Design{
		SumInsured: 100,
		Periods: []product.CoveragePeriod{{
			StartDay: 335, EndDay: 423,
			Perils: []product.Peril{{
				Type: product.ExcessRainfall, Trigger: 50, Duration: 3,
				UnitPayout: 1.0, MaxPayout: 100, AllocatedSI: 100,
			}},
		}},
	}

	res, err := engine.Price(design, testLoc, product.DataPrecipitation)
	require.NoError(t, err)
	// Every replay year's window reaches the January rain of year+1 and sees
	// a max 3-day sum of 60 — except the final year, whose spillover days do
	// not exist in the series and whose window holds only dry December.
	assert.Equal(t, 29, res.PayoutYears)
	for _, yr := range res.YearlyResults {
		peril := yr.Periods[0].Perils[0]
		require.NotNil(t, peril.ActualValue)
		if yr.Year < 2020 {
			assert.Equal(t, 60.0, *peril.ActualValue)
			assert.True(t, peril.TriggerMet)
		} else {
			assert.Equal(t, 0.0, *peril.ActualValue)
			assert.False(t, peril.TriggerMet)
		}
	}
}

func TestPriceIdempotent(t *testing.T) {
	store := newTestStore(t, 1990, 30, func(year, doy int) float64 {
		return float64((year*31 + doy) % 17)
	})
	engine := NewEngine(store, Config{Years: 30, AdminLoading: 0.15, ProfitLoading: 0.075})

	design := product.Design{
		SumInsured: 200,
		Periods: []product.CoveragePeriod{{
			StartDay: 60, EndDay: 150,
			Perils: []product.Peril{{
				Type: product.LowRainfall, Trigger: 80, Duration: 10,
				UnitPayout: 1.5, MaxPayout: 200, AllocatedSI: 200,
			}},
		}},
	}

	first, err := engine.Price(design, testLoc, product.DataPrecipitation)
	require.NoError(t, err)
	second, err := engine.Price(design, testLoc, product.DataPrecipitation)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPriceInsufficientHistory(t *testing.T) {
	store := newTestStore(t, 2010, 10, func(year, doy int) float64 { return 1 })
	engine := NewEngine(store, Config{Years: 30, AdminLoading: 0.15, ProfitLoading: 0.075})

	design := product.Design{
		SumInsured: 100,
		Periods: []product.CoveragePeriod{{
			StartDay: 0, EndDay: 30,
			Perils: []product.Peril{{Type: product.LowRainfall, Trigger: 50, Duration: 5,
				UnitPayout: 1, MaxPayout: 100, AllocatedSI: 100}},
		}},
	}
	_, err := engine.Price(design, testLoc, product.DataPrecipitation)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestPriceUnknownCommune(t *testing.T) {
	store := newTestStore(t, 1990, 30, func(year, doy int) float64 { return 1 })
	engine := NewEngine(store, Config{Years: 30, AdminLoading: 0.15, ProfitLoading: 0.075})

	design := product.Design{
		SumInsured: 100,
		Periods: []product.CoveragePeriod{{
			StartDay: 0, EndDay: 30,
			Perils: []product.Peril{{Type: product.LowRainfall, Trigger: 50, Duration: 5,
				UnitPayout: 1, MaxPayout: 100, AllocatedSI: 100}},
		}},
	}
	loc := product.Location{Province: "Kandal", District: "Kandal", Commune: "Unknown"}
	_, err := engine.Price(design, loc, product.DataPrecipitation)
	var verr *product.ValidationError
	assert.ErrorAs(t, err, &verr)
}
