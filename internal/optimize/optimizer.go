package optimize

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/agrisure/weatherindex/internal/pricing"
	"github.com/agrisure/weatherindex/internal/product"
	"github.com/agrisure/weatherindex/internal/telemetry"
)

// SearchConfig bounds the trial budget and its adaptive extension.
type SearchConfig struct {
	InitialTrials  int     `yaml:"initial_trials"`  // fixed first batch
	ExtensionBatch int     `yaml:"extension_batch"` // added per extension
	MaxTrials      int     `yaml:"max_trials"`      // hard ceiling
	NearMissFloor  float64 `yaml:"near_miss_floor"` // extend only while best > floor
	Seed           int64   `yaml:"seed"`
}

// DefaultSearchConfig returns the production search budget: 250 trials,
// extended in batches of 100 up to 550 while the best score is negative but
// within 3.0 of feasibility.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		InitialTrials:  250,
		ExtensionBatch: 100,
		MaxTrials:      550,
		NearMissFloor:  -3.0,
		Seed:           42,
	}
}

// minAbsTolerance is the absolute floor of the final acceptance tolerance.
// The relative component is 1% of the premium cap.
const minAbsTolerance = 1.0

// Candidate is an accepted optimization outcome: the reconstructed best
// design re-priced at its premium cap.
type Candidate struct {
	Design product.Design
	Result *pricing.Result
	Score  float64
	Cap    float64
	Trials int
}

// Optimizer runs a sequential black-box search over one strategy's cap band.
type Optimizer struct {
	engine   *pricing.Engine
	cfg      SearchConfig
	strategy string
}

// NewOptimizer creates an optimizer pricing trials through engine. The
// strategy name is used only for logging and metrics.
func NewOptimizer(engine *pricing.Engine, cfg SearchConfig, strategy string) *Optimizer {
	return &Optimizer{engine: engine, cfg: cfg, strategy: strategy}
}

// Optimize searches the space and returns the best feasible candidate, or
// nil when the search exhausts its budget without a design that satisfies
// the premium cap within tolerance. The trial loop is strictly sequential:
// the sampler's state is seeded and must stay deterministic.
func (o *Optimizer) Optimize(space *Space, loc product.Location, dataType product.DataType, totalYears int) (*Candidate, error) {
	sampler := NewSampler(space, o.cfg.Seed)

	history := make([]Trial, 0, o.cfg.MaxTrials)
	bestScore := math.Inf(-1)
	bestIdx := -1

	budget := o.cfg.InitialTrials
	for len(history) < budget {
		params := sampler.Propose(history)
		score := o.evaluateTrial(space, params, loc, dataType, totalYears)
		history = append(history, Trial{Params: params, Score: score})
		telemetry.TrialsTotal.WithLabelValues(o.strategy).Inc()
		if score > bestScore {
			bestScore = score
			bestIdx = len(history) - 1
		}

		if len(history) < budget {
			continue
		}
		// Budget exhausted: extend while the best score is negative but
		// close enough to feasibility that more trials may still cross it.
		if bestScore >= 0 || budget >= o.cfg.MaxTrials || bestScore <= o.cfg.NearMissFloor {
			break
		}
		budget += o.cfg.ExtensionBatch
		if budget > o.cfg.MaxTrials {
			budget = o.cfg.MaxTrials
		}
		log.Debug().Str("strategy", o.strategy).Float64("best_score", bestScore).
			Int("budget", budget).Msg("extending trial budget")
	}

	if bestIdx < 0 || math.IsInf(bestScore, -1) {
		log.Info().Str("strategy", o.strategy).Int("trials", len(history)).
			Msg("search exhausted with no valid trial")
		return nil, nil
	}
	return o.accept(space, history[bestIdx], loc, dataType, totalYears, len(history))
}

// evaluateTrial prices one sampled point. Any failure inside the objective,
// including panics, scores the trial as worst-possible rather than aborting
// the search.
func (o *Optimizer) evaluateTrial(space *Space, params Params, loc product.Location, dataType product.DataType, totalYears int) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("strategy", o.strategy).Interface("panic", r).Msg("trial panicked")
			score = math.Inf(-1)
		}
	}()

	design := space.Build(params)
	res, err := o.engine.Price(design, loc, dataType)
	if err != nil {
		return math.Inf(-1)
	}
	cost := round2(res.LoadedPremium)
	return compositeScore(res, cost, space.Cap(params), space.SumInsured, totalYears)
}

// accept reconstructs the best trial's full configuration, re-prices it, and
// applies the final feasibility check with a small tolerance.
func (o *Optimizer) accept(space *Space, best Trial, loc product.Location, dataType product.DataType, totalYears, trials int) (*Candidate, error) {
	design := space.Build(best.Params)
	res, err := o.engine.Price(design, loc, dataType)
	if err != nil {
		return nil, err
	}

	cap := space.Cap(best.Params)
	cost := round2(res.LoadedPremium)
	tolerance := math.Max(0.01*cap, minAbsTolerance)
	if cost > cap+tolerance {
		log.Info().Str("strategy", o.strategy).Float64("cost", cost).Float64("cap", cap).
			Msg("best candidate exceeds premium cap beyond tolerance")
		return nil, nil
	}
	if limit := maxPayoutYears(totalYears); res.PayoutYears > limit {
		log.Info().Str("strategy", o.strategy).Int("payout_years", res.PayoutYears).
			Int("limit", limit).Msg("best candidate over-triggers")
		return nil, nil
	}

	return &Candidate{
		Design: design,
		Result: res,
		Score:  best.Score,
		Cap:    cap,
		Trials: trials,
	}, nil
}
