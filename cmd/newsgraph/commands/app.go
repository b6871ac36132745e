package commands

import (
	"github.com/tbracken/newsgraph/internal/analysis"
	"github.com/tbracken/newsgraph/internal/config"
	"github.com/tbracken/newsgraph/internal/graph"
	"github.com/tbracken/newsgraph/internal/ingest"
	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/models"
	"github.com/tbracken/newsgraph/internal/relcache"
	"github.com/tbracken/newsgraph/internal/store"
)

// app holds the wired components shared by the discover and query
// commands. Events come from the news file; the relationship cache
// snapshot, when present, is replayed into the graph so queries work
// without re-running discovery.
type app struct {
	cfg    *config.Config
	events *store.EventStore
	cache  *relcache.Cache
	graph  *graph.Graph
	engine *analysis.Engine
	logger *logging.Logger
}

func newApp(newsPath, cachePath string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		events: store.NewEventStore(),
		cache:  relcache.New(cfg.CacheTTL),
		logger: logging.GetLogger("newsgraph"),
	}
	a.graph = graph.New(a.events, cfg.PendingTTL)
	a.engine = analysis.NewEngine(a.graph, a.events, cfg)

	if newsPath != "" {
		loader := ingest.NewLoader(a.events)
		report, err := loader.LoadFile(newsPath)
		if err != nil {
			return nil, err
		}
		a.logger.InfoWithFields("events loaded",
			logging.Field("loaded", report.Loaded),
			logging.Field("skipped", report.Skipped),
		)
	}

	if cachePath != "" {
		loaded, err := a.cache.LoadFile(cachePath)
		if err != nil {
			return nil, err
		}
		for _, rel := range a.cache.Snapshot() {
			// Endpoints missing from the news file park as pending
			_ = a.graph.AddRelationship(rel)
		}
		a.logger.InfoWithFields("cache snapshot replayed",
			logging.Field("relationships", loaded),
			logging.Field("edges", a.graph.EdgeCount()),
		)
	}

	return a, nil
}

// resolveEvent maps an id or title substring to an event id
func (a *app) resolveEvent(query string) (string, error) {
	event, ok := a.events.Resolve(query)
	if !ok {
		return "", models.NewValidationError("no event matches %q", query)
	}
	return event.ID, nil
}
