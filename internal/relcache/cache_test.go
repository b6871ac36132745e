package relcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracken/newsgraph/internal/models"
)

func rel(source, target string, rt models.RelationType, confidence float64, discoveredAt time.Time) models.Relationship {
	return models.Relationship{
		SourceID:     source,
		TargetID:     target,
		Type:         rt,
		Confidence:   confidence,
		Explanation:  "test",
		DiscoveredAt: discoveredAt,
	}
}

func TestPutAndGet(t *testing.T) {
	c := New(24 * time.Hour)
	now := time.Now()

	r := rel("a", "b", models.RelationCauses, 0.8, now)
	require.NoError(t, c.Put(r))

	got, ok := c.Get("a", "b")
	require.True(t, ok)
	assert.Equal(t, r, got)

	// Symmetric pair is a distinct entry
	_, ok = c.Get("b", "a")
	assert.False(t, ok)
}

func TestPutOverwritesEntirely(t *testing.T) {
	c := New(24 * time.Hour)
	now := time.Now()

	require.NoError(t, c.Put(rel("a", "b", models.RelationCauses, 0.8, now)))
	updated := rel("a", "b", models.RelationImpactsFinance, 0.3, now.Add(time.Minute))
	require.NoError(t, c.Put(updated))

	got, ok := c.Get("a", "b")
	require.True(t, ok)
	assert.Equal(t, updated, got)
	assert.Equal(t, 1, c.Len())
}

func TestPutRejectsInvalidRelationships(t *testing.T) {
	c := New(24 * time.Hour)
	now := time.Now()

	tests := []struct {
		name string
		rel  models.Relationship
	}{
		{name: "self loop", rel: rel("a", "a", models.RelationCauses, 0.8, now)},
		{name: "unknown type", rel: rel("a", "b", models.RelationType("MADE_UP"), 0.8, now)},
		{name: "confidence above 1", rel: rel("a", "b", models.RelationCauses, 1.2, now)},
		{name: "negative confidence", rel: rel("a", "b", models.RelationCauses, -0.1, now)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Put(tt.rel)
			require.Error(t, err)
			assert.True(t, models.IsValidationError(err))
		})
	}
	assert.Equal(t, 0, c.Len())
}

func TestFreshAndExpiredEntries(t *testing.T) {
	c := New(time.Hour)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.Put(rel("a", "b", models.RelationCauses, 0.8, base)))
	require.NoError(t, c.Put(rel("c", "d", models.RelationCauses, 0.7, base.Add(50*time.Minute))))

	now := base.Add(61 * time.Minute)
	assert.False(t, c.Fresh("a", "b", now))
	assert.True(t, c.Fresh("c", "d", now))
	assert.False(t, c.Fresh("x", "y", now))

	expired := c.ExpiredEntries(now)
	require.Len(t, expired, 1)
	assert.Equal(t, "a", expired[0].SourceID)
}

func TestSnapshotIsSortedAndDetached(t *testing.T) {
	c := New(time.Hour)
	now := time.Now()

	require.NoError(t, c.Put(rel("c", "d", models.RelationCauses, 0.7, now)))
	require.NoError(t, c.Put(rel("a", "b", models.RelationCauses, 0.8, now)))
	require.NoError(t, c.Put(rel("a", "c", models.RelationCauses, 0.9, now)))

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "a", snap[0].SourceID)
	assert.Equal(t, "b", snap[0].TargetID)
	assert.Equal(t, "a", snap[1].SourceID)
	assert.Equal(t, "c", snap[1].TargetID)
	assert.Equal(t, "c", snap[2].SourceID)

	// Mutating the cache after the snapshot does not change it
	c.Delete("a", "b")
	assert.Len(t, snap, 3)
}
