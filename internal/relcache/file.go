package relcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tbracken/newsgraph/internal/models"
)

// fileDocument is the on-disk shape of a cache snapshot
type fileDocument struct {
	Relationships []models.Relationship `json:"relationships"`
}

// LoadFile populates the cache from a JSON snapshot written by
// SaveFile. A missing file is not an error: a cold cache is the
// normal first-run state. Invalid entries are skipped.
func (c *Cache) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache snapshot %q: %w", path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parse cache snapshot %q: %w", path, err)
	}

	loaded := 0
	for _, rel := range doc.Relationships {
		if err := c.Put(rel); err == nil {
			loaded++
		}
	}
	return loaded, nil
}

// SaveFile writes the current cache contents as a JSON snapshot
func (c *Cache) SaveFile(path string) error {
	doc := fileDocument{Relationships: c.Snapshot()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache snapshot %q: %w", path, err)
	}
	return nil
}
