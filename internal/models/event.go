package models

import (
	"strings"
	"time"
)

// Event represents a single normalized news event. Events are immutable
// once ingested; downstream components reference them by ID only.
type Event struct {
	// ID is a unique, stable identifier for the event
	ID string `json:"id"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// Title is the event headline
	Title string `json:"title"`

	// Summary is the event body or abstract used for classification
	Summary string `json:"summary"`

	// Category is the industry/topic category (e.g. "technology")
	Category string `json:"category"`

	// Entities are the named entities mentioned by the event.
	// Order is irrelevant; matching is case-insensitive.
	Entities []string `json:"entities"`

	// ImpactScore rates the event's significance on a 1-10 scale
	ImpactScore float64 `json:"impact_score"`
}

// Validate checks that the event is well-formed
func (e *Event) Validate() error {
	if e.ID == "" {
		return NewValidationError("event id must not be empty")
	}
	if e.Timestamp.IsZero() {
		return NewValidationError("event %s: timestamp must be set", e.ID)
	}
	if e.Title == "" {
		return NewValidationError("event %s: title must not be empty", e.ID)
	}
	if e.ImpactScore < 1 || e.ImpactScore > 10 {
		return NewValidationError("event %s: impact score must be in [1,10], got %v", e.ID, e.ImpactScore)
	}
	return nil
}

// NormalizedEntities returns the event's entities lowercased and trimmed,
// for case-insensitive overlap checks.
func (e *Event) NormalizedEntities() []string {
	out := make([]string, 0, len(e.Entities))
	for _, ent := range e.Entities {
		ent = strings.ToLower(strings.TrimSpace(ent))
		if ent != "" {
			out = append(out, ent)
		}
	}
	return out
}

// EmbeddingText returns the text representation used for embedding:
// title plus a bounded prefix of the summary.
func (e *Event) EmbeddingText() string {
	const maxSummary = 500
	summary := e.Summary
	if len(summary) > maxSummary {
		summary = summary[:maxSummary]
	}
	if summary == "" {
		return e.Title
	}
	return e.Title + " " + summary
}
