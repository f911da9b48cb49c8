package optimize

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agrisure/weatherindex/internal/pricing"
	"github.com/agrisure/weatherindex/internal/product"
	"github.com/agrisure/weatherindex/internal/telemetry"
	"github.com/agrisure/weatherindex/internal/weather"
)

// OrchestratorConfig bounds a full optimization run.
type OrchestratorConfig struct {
	StrategyTimeout time.Duration `yaml:"strategy_timeout"`
	Search          SearchConfig  `yaml:"search"`
	Pricing         pricing.Config
}

// DefaultOrchestratorConfig gives each strategy five minutes of wall clock.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		StrategyTimeout: 5 * time.Minute,
		Search:          DefaultSearchConfig(),
		Pricing:         pricing.DefaultConfig(),
	}
}

// Orchestrator fans a request out to the three strategy presets, one worker
// per strategy, and assembles whichever succeed into the ranked result list.
type Orchestrator struct {
	store  *weather.Store
	engine *pricing.Engine
	cfg    OrchestratorConfig
}

// NewOrchestrator wires an orchestrator over a weather store.
func NewOrchestrator(store *weather.Store, cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		store:  store,
		engine: pricing.NewEngine(store, cfg.Pricing),
		cfg:    cfg,
	}
}

// Run validates the request, executes the three strategies concurrently, and
// returns their accepted configurations in preset order. A strategy that
// times out, fails, or finds nothing feasible is omitted; only a malformed
// request produces an error. When every strategy comes back empty the single
// element returned carries an explicit error marker.
func (o *Orchestrator) Run(ctx context.Context, req product.Request) ([]StrategyResult, error) {
	parsed, err := product.ParseRequest(req)
	if err != nil {
		return nil, err
	}
	// Surface structurally impossible periods (too short for any peril
	// window) before any optimization work begins.
	if _, err := NewSpace(parsed.Periods, parsed.SumInsured, 0, 0, parsed.PremiumCap); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Str("province", parsed.Location.Province).Logger()
	logger.Info().Float64("sum_insured", parsed.SumInsured).
		Float64("premium_cap", parsed.PremiumCap).Int("periods", len(parsed.Periods)).
		Msg("optimization run starting")

	// The shared series cache lives for exactly one run.
	defer o.store.Clear()

	bands := strategyBands(parsed.PremiumCap, parsed.SumInsured)
	channels := make([]chan strategyOutcome, len(bands))
	for i, band := range bands {
		channels[i] = make(chan strategyOutcome, 1)
		go o.runStrategy(i, band, parsed, channels[i])
	}

	var results []StrategyResult
	for i, band := range bands {
		timer := time.NewTimer(o.cfg.StrategyTimeout)
		select {
		case out := <-channels[i]:
			timer.Stop()
			if out.err != nil {
				telemetry.StrategyRuns.WithLabelValues(string(band.Kind), "failed").Inc()
				logger.Warn().Err(out.err).Str("strategy", string(band.Kind)).Msg("strategy failed")
				continue
			}
			if out.candidate == nil {
				telemetry.StrategyRuns.WithLabelValues(string(band.Kind), "infeasible").Inc()
				continue
			}
			telemetry.StrategyRuns.WithLabelValues(string(band.Kind), "accepted").Inc()
			results = append(results, buildResult(band.Kind, out.candidate, parsed.PremiumCap))
		case <-timer.C:
			// The worker is not cancelled, just ignored: its computation may
			// still complete and be dropped on the buffered channel.
			telemetry.StrategyRuns.WithLabelValues(string(band.Kind), "timeout").Inc()
			logger.Warn().Str("strategy", string(band.Kind)).
				Dur("timeout", o.cfg.StrategyTimeout).Msg("strategy timed out")
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	if len(results) == 0 {
		logger.Info().Msg("no strategy produced a valid configuration")
		return []StrategyResult{{Error: "No valid configurations found within constraints"}}, nil
	}
	logger.Info().Int("results", len(results)).Msg("optimization run complete")
	return results, nil
}

type strategyOutcome struct {
	candidate *Candidate
	err       error
}

func (o *Orchestrator) runStrategy(idx int, band strategyBand, parsed *product.ParsedRequest, out chan<- strategyOutcome) {
	start := time.Now()
	defer func() {
		telemetry.StrategyDuration.WithLabelValues(string(band.Kind)).
			Observe(time.Since(start).Seconds())
	}()

	var space *Space
	var err error
	if band.Fixed {
		space, err = NewSpace(parsed.Periods, parsed.SumInsured, 0, 0, band.FixedCap)
	} else {
		space, err = NewSpace(parsed.Periods, parsed.SumInsured, band.MinRatio, band.MaxRatio, 0)
	}
	if err != nil {
		out <- strategyOutcome{err: err}
		return
	}

	// Independent seed per strategy keeps the three trial sequences
	// reproducible without coupling them.
	cfg := o.cfg.Search
	cfg.Seed += int64(idx)
	opt := NewOptimizer(o.engine, cfg, string(band.Kind))
	candidate, err := opt.Optimize(space, parsed.Location, parsed.DataType, o.cfg.Pricing.Years)
	out <- strategyOutcome{candidate: candidate, err: err}
}
