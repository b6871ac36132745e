// Package ingest loads news articles from JSON files and converts
// them into stored events. Timestamps are parsed leniently because
// upstream feeds mix ISO 8601, RFC 1123, and human-written dates.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/models"
	"github.com/tbracken/newsgraph/internal/store"
)

// Article mirrors one entry of the news JSON file. Summary falls back
// to Content when absent; the remaining feed fields (source, tags,
// sentiment) are accepted but not carried into events.
type Article struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Summary     string      `json:"summary"`
	Timestamp   string      `json:"timestamp"`
	Source      string      `json:"source"`
	Category    string      `json:"category"`
	Entities    []string    `json:"entities"`
	Tags        []string    `json:"tags"`
	Sentiment   string      `json:"sentiment"`
	ImpactScore float64     `json:"impact_score"`
}

type document struct {
	Articles []Article `json:"articles"`
}

// Report summarizes one load: how many articles were stored and how
// many were skipped, with the per-article reasons logged.
type Report struct {
	Loaded  int
	Skipped int
}

// Loader converts news JSON documents into events
type Loader struct {
	events *store.EventStore
	logger *logging.Logger
	parser dps.Parser
	now    func() time.Time
}

// NewLoader creates a loader that stores events into the given store
func NewLoader(events *store.EventStore) *Loader {
	return &Loader{
		events: events,
		logger: logging.GetLogger("ingest"),
		now:    time.Now,
	}
}

// LoadFile reads a news JSON file of the form {"articles": [...]}
// and stores every valid article as an event. Invalid or duplicate
// articles are skipped and counted, never fatal: one bad article must
// not sink the rest of the feed.
func (l *Loader) LoadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read news file %q: %w", path, err)
	}
	return l.Load(data)
}

// Load ingests a news JSON document from memory
func (l *Loader) Load(data []byte) (*Report, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse news document: %w", err)
	}

	report := &Report{}
	for i, article := range doc.Articles {
		event, err := l.toEvent(&article)
		if err == nil {
			err = l.events.Add(event)
		}
		if err != nil {
			report.Skipped++
			l.logger.WarnWithFields("skipping article",
				logging.Field("index", i),
				logging.Field("title", article.Title),
				logging.Field("error", err.Error()),
			)
			continue
		}
		report.Loaded++
	}

	l.logger.InfoWithFields("news document loaded",
		logging.Field("loaded", report.Loaded),
		logging.Field("skipped", report.Skipped),
	)
	return report, nil
}

// toEvent validates and converts an article. The store validates the
// resulting event again; this layer only handles feed-specific shape.
func (l *Loader) toEvent(article *Article) (*models.Event, error) {
	id := article.ID.String()
	if id == "" {
		return nil, models.NewValidationError("article id must not be empty")
	}

	summary := article.Summary
	if summary == "" {
		summary = article.Content
	}

	timestamp, err := l.parseTimestamp(article.Timestamp)
	if err != nil {
		return nil, err
	}

	impact := article.ImpactScore
	if impact == 0 {
		// Feed default for unscored articles
		impact = 5.0
	}

	event := &models.Event{
		ID:          id,
		Timestamp:   timestamp,
		Title:       article.Title,
		Summary:     summary,
		Category:    article.Category,
		Entities:    article.Entities,
		ImpactScore: impact,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// parseTimestamp accepts RFC 3339 directly and falls back to lenient
// natural-language parsing for everything else.
func (l *Loader) parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return l.now().UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}

	parsed, err := l.parser.Parse(&dps.Configuration{
		CurrentTime: l.now(),
	}, raw)
	if err != nil || parsed.IsZero() {
		return time.Time{}, models.NewValidationError("unparseable timestamp %q", raw)
	}
	return parsed.Time.UTC(), nil
}
