package relcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracken/newsgraph/internal/models"
)

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	src := New(time.Hour)
	require.NoError(t, src.Put(models.Relationship{
		SourceID:     "a",
		TargetID:     "b",
		Type:         models.RelationCauses,
		Confidence:   0.8,
		Explanation:  "a pushed b",
		DiscoveredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, src.SaveFile(path))

	dst := New(time.Hour)
	loaded, err := dst.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	rel, ok := dst.Get("a", "b")
	require.True(t, ok)
	assert.Equal(t, models.RelationCauses, rel.Type)
	assert.Equal(t, "a pushed b", rel.Explanation)
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	c := New(time.Hour)
	loaded, err := c.LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded)
	assert.Equal(t, 0, c.Len())
}

func TestLoadFileSkipsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	doc := `{"relationships": [
		{"source_id": "a", "target_id": "b", "type": "CAUSES", "confidence": 0.8,
		 "explanation": "x", "discovered_at": "2025-03-01T12:00:00Z"},
		{"source_id": "a", "target_id": "a", "type": "CAUSES", "confidence": 0.8,
		 "explanation": "self loop", "discovered_at": "2025-03-01T12:00:00Z"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c := New(time.Hour)
	loaded, err := c.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
}
