// Package pipeline orchestrates relationship discovery: candidate
// selection, cache lookups, batched classification, and graph
// updates, with bounded concurrency across classifier batches.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tbracken/newsgraph/internal/classifier"
	"github.com/tbracken/newsgraph/internal/config"
	"github.com/tbracken/newsgraph/internal/graph"
	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/metrics"
	"github.com/tbracken/newsgraph/internal/models"
	"github.com/tbracken/newsgraph/internal/relcache"
	"github.com/tbracken/newsgraph/internal/selector"
	"github.com/tbracken/newsgraph/internal/store"
)

// Result summarizes one discovery run for a single source event.
type Result struct {
	EventID       string
	Candidates    int
	CacheHits     int
	Classified    int
	Discovered    int
	FailedBatches int
}

// Pipeline wires the discovery stages together. All stages share one
// configuration snapshot per run; hot reloads take effect on the next
// run, never mid-flight.
type Pipeline struct {
	events     *store.EventStore
	selector   *selector.Selector
	cache      *relcache.Cache
	classifier classifier.Classifier
	graph      *graph.Graph
	metrics    *metrics.Metrics
	logger     *logging.Logger

	mu  sync.RWMutex
	cfg *config.Config

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a discovery pipeline over the given components
func New(events *store.EventStore, sel *selector.Selector, cache *relcache.Cache,
	cls classifier.Classifier, g *graph.Graph, m *metrics.Metrics, cfg *config.Config) *Pipeline {

	return &Pipeline{
		events:     events,
		selector:   sel,
		cache:      cache,
		classifier: cls,
		graph:      g,
		metrics:    m,
		logger:     logging.GetLogger("pipeline"),
		cfg:        cfg,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// SetConfig swaps the configuration used by subsequent runs
func (p *Pipeline) SetConfig(cfg *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}

func (p *Pipeline) config() config.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return *p.cfg
}

// DiscoverAll runs discovery for every stored event. Source events
// run concurrently under a semaphore-bounded limit; within one source
// event, classifier batches are sequential. Results come back in id
// order. A context cancellation stops the run; individual classifier
// failures do not.
func (p *Pipeline) DiscoverAll(ctx context.Context) ([]*Result, error) {
	cfg := p.config()
	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrentBatches))

	events := p.events.All()
	results := make([]*Result, len(events))

	group, ctx := errgroup.WithContext(ctx)
	for i, event := range events {
		group.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			result, err := p.discoverEvent(ctx, event, cfg)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DiscoverEvent runs discovery for a single source event
func (p *Pipeline) DiscoverEvent(ctx context.Context, eventID string) (*Result, error) {
	event, ok := p.events.Get(eventID)
	if !ok {
		return nil, models.NewValidationError("unknown event id %q", eventID)
	}
	return p.discoverEvent(ctx, event, p.config())
}

func (p *Pipeline) discoverEvent(ctx context.Context, event *models.Event,
	cfg config.Config) (*Result, error) {

	result := &Result{EventID: event.ID}

	candidateIDs, err := p.selector.SelectCandidates(ctx, event, cfg.MaxCandidates)
	if err != nil {
		return nil, err
	}
	result.Candidates = len(candidateIDs)
	p.metrics.CandidatesPerSource.Observe(float64(len(candidateIDs)))

	// Fresh cache entries short-circuit classification for their pair
	now := p.now()
	var toClassify []*models.Event
	for _, id := range candidateIDs {
		if p.cache.Fresh(event.ID, id, now) {
			result.CacheHits++
			p.metrics.CacheHits.Inc()
			continue
		}
		p.metrics.CacheMisses.Inc()
		candidate, ok := p.events.Get(id)
		if !ok {
			continue
		}
		toClassify = append(toClassify, candidate)
	}
	result.Classified = len(toClassify)

	discovered, failed, err := p.classifyBatches(ctx, event, toClassify, cfg)
	if err != nil {
		return nil, err
	}
	result.FailedBatches = failed

	for _, rel := range discovered {
		if err := p.acceptRelationship(rel); err != nil {
			continue
		}
		result.Discovered++
	}

	p.graph.ResolvePending(p.now())
	p.metrics.PendingEdgesParked.Set(float64(p.graph.PendingCount()))
	p.metrics.EventsProcessed.Inc()

	p.logger.InfoWithFields("discovery complete",
		logging.Field("event_id", event.ID),
		logging.Field("candidates", result.Candidates),
		logging.Field("cache_hits", result.CacheHits),
		logging.Field("discovered", result.Discovered),
	)
	return result, nil
}

// classifyBatches runs candidate batches through the classifier in
// order. A batch that exhausts its retries is dropped and counted;
// only context cancellation aborts the whole run.
func (p *Pipeline) classifyBatches(ctx context.Context, source *models.Event,
	candidates []*models.Event, cfg config.Config) ([]models.Relationship, int, error) {

	var (
		discovered []models.Relationship
		failed     int
	)

	for start := 0; start < len(candidates); start += cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, failed, err
		}
		end := start + cfg.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		rels, err := p.classifyWithRetry(ctx, source, batch, cfg.Retry)
		if err != nil {
			if ctx.Err() != nil {
				return nil, failed, ctx.Err()
			}
			p.metrics.ClassifierErrors.Inc()
			p.logger.WarnWithFields("classifier batch dropped",
				logging.Field("event_id", source.ID),
				logging.Field("batch_size", len(batch)),
				logging.Field("error", err.Error()),
			)
			failed++
			continue
		}
		discovered = append(discovered, rels...)
	}
	return discovered, failed, nil
}

// classifyWithRetry retries retryable classifier failures with
// exponential backoff. Non-retryable failures surface immediately.
func (p *Pipeline) classifyWithRetry(ctx context.Context, source *models.Event,
	batch []*models.Event, retry config.RetryConfig) ([]models.Relationship, error) {

	backoff := retry.Backoff
	var lastErr error

	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		p.metrics.ClassifierCalls.Inc()
		rels, err := p.classifier.ClassifyBatch(ctx, source, batch)
		if err == nil {
			return rels, nil
		}
		lastErr = err

		if svcErr, ok := err.(*models.ExternalServiceError); ok && !svcErr.Retryable {
			return nil, err
		}
		if attempt == retry.MaxAttempts {
			break
		}

		p.logger.DebugWithFields("classifier attempt failed, retrying",
			logging.Field("attempt", attempt),
			logging.Field("backoff", backoff.String()),
		)
		if err := p.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff = time.Duration(float64(backoff) * retry.Multiplier)
	}
	return nil, lastErr
}

// acceptRelationship records a classified relationship in the cache
// and the graph. Edges whose endpoints are not yet stored are parked
// by the graph; that is expected during streaming ingestion.
func (p *Pipeline) acceptRelationship(rel models.Relationship) error {
	if err := p.cache.Put(rel); err != nil {
		p.logger.WarnWithFields("dropping invalid relationship",
			logging.Field("source", rel.SourceID),
			logging.Field("target", rel.TargetID),
			logging.Field("error", err.Error()),
		)
		return err
	}
	if err := p.graph.AddRelationship(rel); err != nil {
		if models.IsGraphConsistencyError(err) {
			p.logger.DebugWithFields("edge parked for unknown endpoint",
				logging.Field("source", rel.SourceID),
				logging.Field("target", rel.TargetID),
			)
			return nil
		}
		return err
	}
	p.metrics.Relationships.Inc()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
