package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracken/newsgraph/internal/models"
)

func TestFindPathShortest(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.event(id)
	}
	f.edge("a", "b", models.RelationCauses, 0.9)
	f.edge("b", "d", models.RelationImpactsFinance, 0.8)
	// Longer detour
	f.edge("a", "c", models.RelationCauses, 0.9)
	f.edge("c", "b", models.RelationCauses, 0.9)

	res, err := f.engine.FindPath("a", "d")
	require.NoError(t, err)
	assert.True(t, res.Found)
	require.Len(t, res.Hops, 2)
	assert.Equal(t, "a", res.Hops[0].SourceID)
	assert.Equal(t, "b", res.Hops[0].TargetID)
	assert.Equal(t, "d", res.Hops[1].TargetID)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
}

func TestFindPathPrefersStrongerEqualLength(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.event(id)
	}
	// Two 2-hop routes: via b (weakest 0.4) and via c (weakest 0.7)
	f.edge("a", "b", models.RelationCauses, 0.4)
	f.edge("b", "d", models.RelationCauses, 0.9)
	f.edge("a", "c", models.RelationCauses, 0.8)
	f.edge("c", "d", models.RelationCauses, 0.7)

	res, err := f.engine.FindPath("a", "d")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Len(t, res.Hops, 2)
	assert.Equal(t, "c", res.Hops[0].TargetID)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)
}

func TestFindPathDisconnected(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		f.event(id)
	}
	f.edge("a", "b", models.RelationCauses, 0.9)
	// c has no edges at all

	res, err := f.engine.FindPath("a", "c")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.False(t, res.BoundReached)
	assert.Empty(t, res.Hops)
}

func TestFindPathHopBound(t *testing.T) {
	f := newFixture(t)
	f.cfg.MaxPathHops = 2
	for _, id := range []string{"a", "b", "c", "d"} {
		f.event(id)
	}
	f.edge("a", "b", models.RelationCauses, 0.9)
	f.edge("b", "c", models.RelationCauses, 0.9)
	f.edge("c", "d", models.RelationCauses, 0.9)

	res, err := f.engine.FindPath("a", "d")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.True(t, res.BoundReached)
}

func TestFindPathSameSourceAndTarget(t *testing.T) {
	f := newFixture(t)
	f.event("a")

	res, err := f.engine.FindPath("a", "a")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Empty(t, res.Hops)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}

func TestFindPathUnknownEvent(t *testing.T) {
	f := newFixture(t)
	f.event("a")

	_, err := f.engine.FindPath("a", "nope")
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}
