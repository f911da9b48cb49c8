package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/agrisure/weatherindex/internal/product"
	"github.com/agrisure/weatherindex/internal/weather"
)

// ErrInsufficientHistory indicates the weather series holds fewer years than
// the engine was asked to replay.
var ErrInsufficientHistory = errors.New("insufficient weather history")

// Config carries the pricing loadings and replay depth.
type Config struct {
	Years         int     // historical years to replay
	AdminLoading  float64 // admin cost loading on the pure premium
	ProfitLoading float64 // profit loading on the pure premium
}

// DefaultConfig mirrors the production loadings: 30 years of history, 15%
// admin, 7.5% profit.
func DefaultConfig() Config {
	return Config{Years: 30, AdminLoading: 0.15, ProfitLoading: 0.075}
}

// PerilYear is one peril's outcome in one historical year.
type PerilYear struct {
	Type        product.PerilType `json:"peril_type"`
	Trigger     float64           `json:"trigger"`
	Duration    int               `json:"duration"`
	UnitPayout  float64           `json:"unit_payout"`
	MaxPayout   float64           `json:"max_payout"`
	AllocatedSI float64           `json:"allocated_si"`
	TriggerMet  bool              `json:"trigger_met"`
	Payout      float64           `json:"payout"`
	ActualValue *float64          `json:"actual_value"`
}

// PeriodYear groups the peril outcomes of one coverage period in one year.
type PeriodYear struct {
	StartDay int         `json:"start_day"`
	EndDay   int         `json:"end_day"`
	Perils   []PerilYear `json:"perils"`
}

// YearResult is the full replay of one historical year.
type YearResult struct {
	Year        int          `json:"year"`
	Periods     []PeriodYear `json:"periods"`
	TotalPayout float64      `json:"total_payout"` // capped at sum insured
}

// SlotBreakdown summarizes one period/peril slot across all replayed years.
type SlotBreakdown struct {
	Type        product.PerilType `json:"peril_type"`
	StartDay    int               `json:"start_day"`
	EndDay      int               `json:"end_day"`
	Trigger     float64           `json:"trigger"`
	Duration    int               `json:"duration"`
	UnitPayout  float64           `json:"unit_payout"`
	MaxPayout   float64           `json:"max_payout"`
	AllocatedSI float64           `json:"allocated_si"`
	AvgPayout   float64           `json:"avg_payout"`
	PayoutYears int               `json:"payout_years"`
}

// Result aggregates a full historical replay of one design.
type Result struct {
	PremiumRate          float64         `json:"premium_rate"` // loaded premium as a fraction of sum insured
	LoadedPremium        float64         `json:"loaded_premium"`
	LossRatio            float64         `json:"loss_ratio"`
	AvgPayout            float64         `json:"avg_payout"` // mean of capped yearly totals
	MaxPayout            float64         `json:"max_payout"` // max of capped yearly totals
	PayoutYears          int             `json:"payout_years"`
	CoverageScore        float64         `json:"coverage_score"`         // payout years / replayed years
	PayoutStability      float64         `json:"payout_stability_score"` // 1 / (1 + stdev of yearly totals)
	CoveragePenalty      float64         `json:"coverage_penalty"`       // never-paying slots / total slots
	PeriodsWithNoPayouts int             `json:"periods_with_no_payouts"`
	PeriodBreakdown      []SlotBreakdown `json:"period_breakdown"`
	YearlyResults        []YearResult    `json:"yearly_results"`
}

// Engine prices designs against a weather store.
type Engine struct {
	store *weather.Store
	cfg   Config
}

// NewEngine creates a pricing engine over the given store.
func NewEngine(store *weather.Store, cfg Config) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// Price replays a design across the configured number of historical years and
// derives premium and coverage metrics. The replay is pure: pricing the same
// design twice yields identical results.
func (e *Engine) Price(design product.Design, loc product.Location, dataType product.DataType) (*Result, error) {
	series, err := e.store.Get(loc.Province, dataType)
	if err != nil {
		return nil, err
	}
	col, err := series.Column(loc)
	if err != nil {
		return nil, err
	}
	years := series.LastYears(e.cfg.Years)
	if len(years) < e.cfg.Years {
		return nil, fmt.Errorf("%w: have %d years, need %d", ErrInsufficientHistory, len(years), e.cfg.Years)
	}

	yearly := make([]YearResult, 0, len(years))
	for _, year := range years {
		yr := YearResult{Year: year}
		for _, period := range design.Periods {
			obs := series.Window(col, year, period.StartDay, period.EndDay)
			py := PeriodYear{StartDay: period.StartDay, EndDay: period.EndDay}
			for _, peril := range period.Perils {
				out := Evaluate(obs, peril)
				rec := PerilYear{
					Type:        peril.Type,
					Trigger:     peril.Trigger,
					Duration:    peril.Duration,
					UnitPayout:  peril.UnitPayout,
					MaxPayout:   peril.MaxPayout,
					AllocatedSI: peril.AllocatedSI,
					TriggerMet:  out.Triggered,
					Payout:      out.Payout,
				}
				if out.Evaluated {
					v := out.ActualValue
					rec.ActualValue = &v
				}
				py.Perils = append(py.Perils, rec)
				yr.TotalPayout += out.Payout
			}
			yr.Periods = append(yr.Periods, py)
		}
		if yr.TotalPayout > design.SumInsured {
			yr.TotalPayout = design.SumInsured
		}
		yearly = append(yearly, yr)
	}

	return e.aggregate(design, yearly), nil
}

func (e *Engine) aggregate(design product.Design, yearly []YearResult) *Result {
	res := &Result{YearlyResults: yearly}

	var sum float64
	totals := make([]float64, len(yearly))
	for i, yr := range yearly {
		totals[i] = yr.TotalPayout
		sum += yr.TotalPayout
		if yr.TotalPayout > res.MaxPayout {
			res.MaxPayout = yr.TotalPayout
		}
		if yr.TotalPayout > 0 {
			res.PayoutYears++
		}
	}
	n := float64(len(yearly))
	res.AvgPayout = sum / n
	res.CoverageScore = float64(res.PayoutYears) / n
	res.PayoutStability = 1.0 / (1.0 + stdev(totals))

	res.LoadedPremium = res.AvgPayout * (1 + e.cfg.AdminLoading + e.cfg.ProfitLoading)
	if design.SumInsured > 0 {
		res.PremiumRate = res.LoadedPremium / design.SumInsured
	}
	if res.LoadedPremium > 0 {
		res.LossRatio = res.AvgPayout / res.LoadedPremium
	}

	res.PeriodBreakdown = e.breakdown(design, yearly)
	deadSlots := 0
	for _, slot := range res.PeriodBreakdown {
		if slot.PayoutYears == 0 {
			deadSlots++
		}
	}
	res.PeriodsWithNoPayouts = deadSlots
	if len(res.PeriodBreakdown) > 0 {
		res.CoveragePenalty = float64(deadSlots) / float64(len(res.PeriodBreakdown))
	}
	return res
}

// breakdown flattens the replay into one row per period/peril slot. A slot
// that never paid in any year marks a dead trigger.
func (e *Engine) breakdown(design product.Design, yearly []YearResult) []SlotBreakdown {
	var slots []SlotBreakdown
	for pi, period := range design.Periods {
		for qi, peril := range period.Perils {
			slot := SlotBreakdown{
				Type:        peril.Type,
				StartDay:    period.StartDay,
				EndDay:      period.EndDay,
				Trigger:     peril.Trigger,
				Duration:    peril.Duration,
				UnitPayout:  peril.UnitPayout,
				MaxPayout:   peril.MaxPayout,
				AllocatedSI: peril.AllocatedSI,
			}
			var sum float64
			for _, yr := range yearly {
				p := yr.Periods[pi].Perils[qi]
				sum += p.Payout
				if p.Payout > 0 {
					slot.PayoutYears++
				}
			}
			slot.AvgPayout = sum / float64(len(yearly))
			slots = append(slots, slot)
		}
	}
	return slots
}

// stdev is the sample standard deviation; a single observation has stdev 0.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
