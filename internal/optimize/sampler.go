package optimize

import (
	"math"
	"math/rand"
)

// Trial records one evaluated point. Trials are ephemeral: they live only for
// the duration of a single search run.
type Trial struct {
	Params Params
	Score  float64
}

// Search proposes the next point to evaluate given the trials seen so far.
// The adaptive budget-extension policy lives in the Optimizer, not here, so
// concrete samplers stay swappable and independently testable.
type Search interface {
	Propose(history []Trial) Params
}

// seededSampler is a deterministic sequential sampler. Early trials explore
// uniformly; once enough history exists it mostly perturbs the incumbent best,
// which concentrates the budget near promising regions the way a model-based
// sampler would.
type seededSampler struct {
	space *Space
	rng   *rand.Rand

	exploreTrials int     // pure uniform sampling for the first n trials
	exploreRate   float64 // chance of a uniform sample afterwards
	mutateRate    float64 // per-coordinate chance of perturbation
}

// NewSampler creates the default sampler for a space. The same seed against
// the same history always proposes the same sequence; the internal rand state
// is not safe for concurrent use.
func NewSampler(space *Space, seed int64) Search {
	return &seededSampler{
		space:         space,
		rng:           rand.New(rand.NewSource(seed)),
		exploreTrials: 60,
		exploreRate:   0.2,
		mutateRate:    0.35,
	}
}

func (s *seededSampler) Propose(history []Trial) Params {
	best, ok := bestTrial(history)
	if !ok || len(history) < s.exploreTrials || s.rng.Float64() < s.exploreRate {
		return s.uniform()
	}
	return s.perturb(best.Params)
}

func (s *seededSampler) uniform() Params {
	p := Params{Slots: make([]SlotParams, len(s.space.Slots))}
	if len(s.space.SplitOptions) > 0 {
		p.SplitRatio = s.space.SplitOptions[s.rng.Intn(len(s.space.SplitOptions))]
	}
	if len(s.space.CapRatios) > 0 {
		p.CapRatio = s.space.CapRatios[s.rng.Intn(len(s.space.CapRatios))]
	}
	grid := unitPayoutGrid()
	for i, slot := range s.space.Slots {
		p.Slots[i] = SlotParams{
			Trigger:    slot.TriggerMin + s.rng.Intn(slot.TriggerMax-slot.TriggerMin+1),
			Duration:   slot.DurationMin + s.rng.Intn(slot.DurationMax-slot.DurationMin+1),
			UnitPayout: grid[s.rng.Intn(len(grid))],
		}
	}
	return p
}

// perturb copies the incumbent and nudges a random subset of coordinates to
// neighboring grid values.
func (s *seededSampler) perturb(base Params) Params {
	p := Params{
		SplitRatio: base.SplitRatio,
		CapRatio:   base.CapRatio,
		Slots:      make([]SlotParams, len(base.Slots)),
	}
	copy(p.Slots, base.Slots)

	if len(s.space.SplitOptions) > 0 && s.rng.Float64() < s.mutateRate {
		p.SplitRatio = s.space.SplitOptions[s.rng.Intn(len(s.space.SplitOptions))]
	}
	if len(s.space.CapRatios) > 0 && s.rng.Float64() < s.mutateRate {
		p.CapRatio = s.nudgeGrid(s.space.CapRatios, base.CapRatio)
	}
	grid := unitPayoutGrid()
	mutated := false
	for i, slot := range s.space.Slots {
		if s.rng.Float64() < s.mutateRate {
			p.Slots[i].Trigger = s.nudgeInt(base.Slots[i].Trigger, slot.TriggerMin, slot.TriggerMax)
			mutated = true
		}
		if s.rng.Float64() < s.mutateRate {
			p.Slots[i].Duration = s.nudgeInt(base.Slots[i].Duration, slot.DurationMin, slot.DurationMax)
			mutated = true
		}
		if s.rng.Float64() < s.mutateRate {
			p.Slots[i].UnitPayout = s.nudgeGrid(grid, base.Slots[i].UnitPayout)
			mutated = true
		}
	}
	if !mutated {
		// Never re-propose the incumbent verbatim.
		i := s.rng.Intn(len(s.space.Slots))
		slot := s.space.Slots[i]
		p.Slots[i].Trigger = s.nudgeInt(base.Slots[i].Trigger, slot.TriggerMin, slot.TriggerMax)
	}
	return p
}

// nudgeInt moves a value by up to ±10% of its range, clamped to bounds.
func (s *seededSampler) nudgeInt(v, lo, hi int) int {
	span := (hi - lo) / 10
	if span < 1 {
		span = 1
	}
	v += s.rng.Intn(2*span+1) - span
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// nudgeGrid moves a value a few steps along a discrete grid.
func (s *seededSampler) nudgeGrid(grid []float64, v float64) float64 {
	idx := 0
	for i, g := range grid {
		if math.Abs(g-v) < math.Abs(grid[idx]-v) {
			idx = i
		}
	}
	idx += s.rng.Intn(7) - 3
	if idx < 0 {
		idx = 0
	}
	if idx >= len(grid) {
		idx = len(grid) - 1
	}
	return grid[idx]
}

// bestTrial returns the highest finite-scored trial.
func bestTrial(history []Trial) (Trial, bool) {
	best := Trial{Score: math.Inf(-1)}
	found := false
	for _, t := range history {
		if !math.IsInf(t.Score, -1) && (!found || t.Score > best.Score) {
			best = t
			found = true
		}
	}
	return best, found
}
