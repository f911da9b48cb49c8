package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpace(t *testing.T) *Space {
	t.Helper()
	sp, err := NewSpace(twoPerilsOnePeriod(), 100, 0.02, 0.05, 0)
	require.NoError(t, err)
	return sp
}

func TestSamplerDeterministicUnderSeed(t *testing.T) {
	sp := testSpace(t)

	run := func() []Params {
		sampler := NewSampler(sp, 42)
		var history []Trial
		var proposals []Params
		for i := 0; i < 120; i++ {
			p := sampler.Propose(history)
			proposals = append(proposals, p)
			// Synthetic score keyed off the first trigger keeps the
			// exploit path active.
			history = append(history, Trial{Params: p, Score: float64(-p.Slots[0].Trigger)})
		}
		return proposals
	}

	assert.Equal(t, run(), run())
}

func TestSamplerSeedsDiffer(t *testing.T) {
	sp := testSpace(t)
	a := NewSampler(sp, 1).Propose(nil)
	b := NewSampler(sp, 2).Propose(nil)
	assert.NotEqual(t, a, b)
}

func TestSamplerRespectsBounds(t *testing.T) {
	sp := testSpace(t)
	sampler := NewSampler(sp, 7)

	var history []Trial
	for i := 0; i < 400; i++ {
		p := sampler.Propose(history)
		require.Len(t, p.Slots, len(sp.Slots))
		for si, slot := range sp.Slots {
			assert.GreaterOrEqual(t, p.Slots[si].Trigger, slot.TriggerMin)
			assert.LessOrEqual(t, p.Slots[si].Trigger, slot.TriggerMax)
			assert.GreaterOrEqual(t, p.Slots[si].Duration, slot.DurationMin)
			assert.LessOrEqual(t, p.Slots[si].Duration, slot.DurationMax)
			assert.GreaterOrEqual(t, p.Slots[si].UnitPayout, 0.50)
			assert.LessOrEqual(t, p.Slots[si].UnitPayout, 3.00)
		}
		assert.Contains(t, splitOptions, p.SplitRatio)
		assert.GreaterOrEqual(t, p.CapRatio, 0.02)
		assert.LessOrEqual(t, p.CapRatio, 0.05)
		history = append(history, Trial{Params: p, Score: float64(i % 13)})
	}
}

func TestSamplerIgnoresInfiniteScores(t *testing.T) {
	history := []Trial{
		{Score: math.Inf(-1)},
		{Score: -2.5},
		{Score: math.Inf(-1)},
	}
	best, ok := bestTrial(history)
	require.True(t, ok)
	assert.Equal(t, -2.5, best.Score)

	_, ok = bestTrial([]Trial{{Score: math.Inf(-1)}})
	assert.False(t, ok)
}
