package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracken/newsgraph/internal/models"
)

func TestRippleWeakestLinkPruning(t *testing.T) {
	f := newFixture(t)
	f.cfg.ConfidenceFloor = 0.5
	for _, id := range []string{"a", "b", "c", "d"} {
		f.event(id)
	}
	f.edge("a", "b", models.RelationCauses, 0.9)
	f.edge("b", "c", models.RelationCauses, 0.4)
	f.edge("c", "d", models.RelationCauses, 0.9)

	result, err := f.engine.RippleEffects("a", 0)
	require.NoError(t, err)

	reached := map[string]RippleEffect{}
	for _, effect := range result.Effects {
		reached[effect.EventID] = effect
	}

	// b and c are reported; the path into c has weakest link 0.4,
	// below the floor, so c is not expanded and d is never reached.
	require.Contains(t, reached, "b")
	require.Contains(t, reached, "c")
	assert.NotContains(t, reached, "d")

	assert.InDelta(t, 0.9, reached["b"].PathConfidence, 1e-9)
	assert.InDelta(t, 0.4, reached["c"].PathConfidence, 1e-9)
}

func TestRippleImpactLevels(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		f.event(id)
	}
	f.edge("a", "b", models.RelationCauses, 0.9)
	f.edge("b", "c", models.RelationCauses, 0.9)
	f.edge("c", "d", models.RelationCauses, 0.9)
	f.edge("d", "e", models.RelationCauses, 0.9)

	result, err := f.engine.RippleEffects("a", 0)
	require.NoError(t, err)
	require.Len(t, result.Effects, 4)

	levels := map[string]ImpactLevel{}
	for _, effect := range result.Effects {
		levels[effect.EventID] = effect.Level
	}
	assert.Equal(t, ImpactPrimary, levels["b"])
	assert.Equal(t, ImpactSecondary, levels["c"])
	assert.Equal(t, ImpactTertiary, levels["d"])
	assert.Equal(t, ImpactQuaternary, levels["e"])
}

func TestRippleDepthBound(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.event(id)
	}
	f.edge("a", "b", models.RelationCauses, 0.9)
	f.edge("b", "c", models.RelationCauses, 0.9)
	f.edge("c", "d", models.RelationCauses, 0.9)

	result, err := f.engine.RippleEffects("a", 2)
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Effects))
	for _, effect := range result.Effects {
		ids = append(ids, effect.EventID)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
	assert.True(t, result.BoundReached)
}

func TestRippleCrossIndustryGrouping(t *testing.T) {
	f := newFixture(t)
	f.event("a")
	f.eventAt("fin", 24*time.Hour)
	require.NoError(t, f.store.Add(&models.Event{
		ID:          "agri",
		Timestamp:   testBase.Add(48 * time.Hour),
		Title:       "event agri",
		Summary:     "summary",
		Category:    "agriculture",
		Entities:    []string{"acme"},
		ImpactScore: 5,
	}))
	f.edge("a", "fin", models.RelationImpactsFinance, 0.9)
	f.edge("a", "agri", models.RelationDisruptsSupplyChain, 0.9)

	result, err := f.engine.RippleEffects("a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"agri"}, result.ByCategory["agriculture"])
	assert.Equal(t, []string{"fin"}, result.ByCategory["technology"])
}

func TestRippleNoEffects(t *testing.T) {
	f := newFixture(t)
	f.event("lonely")

	result, err := f.engine.RippleEffects("lonely", 0)
	require.NoError(t, err)
	assert.Empty(t, result.Effects)
	assert.False(t, result.BoundReached)
}
