package selector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracken/newsgraph/internal/models"
	"github.com/tbracken/newsgraph/internal/store"
)

var baseTime = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func addEvent(t *testing.T, s *store.EventStore, id string, offset time.Duration, category string, entities ...string) {
	t.Helper()
	require.NoError(t, s.Add(&models.Event{
		ID:          id,
		Timestamp:   baseTime.Add(offset),
		Title:       "event " + id,
		Summary:     "summary " + id,
		Category:    category,
		Entities:    entities,
		ImpactScore: 5,
	}))
}

// mapEmbedder serves fixed vectors per event id and fails for ids it
// does not know.
type mapEmbedder struct {
	vectors map[string][]float64
}

func (m *mapEmbedder) EmbedKeyed(_ context.Context, key, _ string) ([]float64, error) {
	vec, ok := m.vectors[key]
	if !ok {
		return nil, errors.New("no embedding")
	}
	return vec, nil
}

func TestSelectCandidatesTemporalWindow(t *testing.T) {
	s := store.NewEventStore()
	addEvent(t, s, "src", 0, "technology", "acme")
	addEvent(t, s, "near-before", -10*24*time.Hour, "technology", "acme")
	addEvent(t, s, "near-after", 10*24*time.Hour, "technology", "acme")
	addEvent(t, s, "too-old", -45*24*time.Hour, "technology", "acme")
	addEvent(t, s, "too-new", 45*24*time.Hour, "technology", "acme")

	sel := New(s, nil, 30*24*time.Hour)
	src, _ := s.Get("src")

	ids, err := sel.SelectCandidates(context.Background(), src, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"near-before", "near-after"}, ids)
}

func TestSelectCandidatesEntityAndCategoryFilter(t *testing.T) {
	s := store.NewEventStore()
	addEvent(t, s, "src", 0, "trade-policy", "USA", "Tariffs")
	addEvent(t, s, "shares-entity", time.Hour, "media", "usa")
	addEvent(t, s, "adjacent-category", 2*time.Hour, "agriculture", "soybeans")
	addEvent(t, s, "unrelated", 3*time.Hour, "healthcare", "hospital")

	sel := New(s, nil, 30*24*time.Hour)
	src, _ := s.Get("src")

	ids, err := sel.SelectCandidates(context.Background(), src, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"shares-entity", "adjacent-category"}, ids)
}

func TestSelectCandidatesSimilarityRanking(t *testing.T) {
	s := store.NewEventStore()
	addEvent(t, s, "src", 0, "technology", "acme")
	addEvent(t, s, "close", time.Hour, "technology", "acme")
	addEvent(t, s, "far", 2*time.Hour, "technology", "acme")

	emb := &mapEmbedder{vectors: map[string][]float64{
		"src":   {1, 0},
		"close": {0.9, 0.1},
		"far":   {0.1, 0.9},
	}}
	sel := New(s, emb, 30*24*time.Hour)
	src, _ := s.Get("src")

	ids, err := sel.SelectCandidates(context.Background(), src, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"close", "far"}, ids)
}

func TestSelectCandidatesDeterministicTieBreaks(t *testing.T) {
	s := store.NewEventStore()
	addEvent(t, s, "src", 0, "technology", "acme")
	// Same entity overlap, same similarity; nearer timestamp wins,
	// then lower id.
	addEvent(t, s, "b-near", time.Hour, "technology", "acme")
	addEvent(t, s, "c-far", 5*time.Hour, "technology", "acme")
	addEvent(t, s, "a-far", 5*time.Hour, "technology", "acme")

	sel := New(s, nil, 30*24*time.Hour)
	src, _ := s.Get("src")

	for i := 0; i < 5; i++ {
		ids, err := sel.SelectCandidates(context.Background(), src, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"b-near", "a-far", "c-far"}, ids)
	}
}

func TestSelectCandidatesEmbeddingFallback(t *testing.T) {
	s := store.NewEventStore()
	addEvent(t, s, "src", 0, "technology", "acme", "widgets")
	addEvent(t, s, "two-shared", time.Hour, "technology", "acme", "widgets")
	addEvent(t, s, "one-shared", time.Hour, "technology", "acme")

	// Embedder knows no vectors at all: fallback ranks by overlap count
	sel := New(s, &mapEmbedder{vectors: map[string][]float64{}}, 30*24*time.Hour)
	src, _ := s.Get("src")

	ids, err := sel.SelectCandidates(context.Background(), src, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"two-shared", "one-shared"}, ids)
}

func TestSelectCandidatesBounds(t *testing.T) {
	s := store.NewEventStore()
	addEvent(t, s, "src", 0, "technology", "acme")
	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		addEvent(t, s, id, time.Hour, "technology", "acme")
	}

	sel := New(s, nil, 30*24*time.Hour)
	src, _ := s.Get("src")

	ids, err := sel.SelectCandidates(context.Background(), src, 2)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.NotContains(t, ids, "src")

	_, err = sel.SelectCandidates(context.Background(), src, 0)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}
