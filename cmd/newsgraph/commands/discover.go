package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbracken/newsgraph/internal/classifier"
	"github.com/tbracken/newsgraph/internal/config"
	"github.com/tbracken/newsgraph/internal/embedding"
	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/metrics"
	"github.com/tbracken/newsgraph/internal/pipeline"
	"github.com/tbracken/newsgraph/internal/selector"
)

var (
	discoverNewsPath  string
	discoverCachePath string
	discoverEventID   string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover causal relationships between loaded news events",
	Long: `Load a news JSON file, select candidate event pairs, classify them
with the external model, and record discovered relationships in the
causation graph. With --cache, previously classified pairs inside
their TTL are skipped and the updated snapshot is written back.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverNewsPath, "news", "",
		"Path to the news JSON file ({\"articles\": [...]})")
	discoverCmd.Flags().StringVar(&discoverCachePath, "cache", "",
		"Path to the relationship cache snapshot (read and written)")
	discoverCmd.Flags().StringVar(&discoverEventID, "event", "",
		"Run discovery for a single event (id or title substring)")
	_ = discoverCmd.MarkFlagRequired("news")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger("discover")

	app, err := newApp(discoverNewsPath, discoverCachePath)
	if err != nil {
		return err
	}

	embedder, err := buildEmbedder(app)
	if err != nil {
		logger.Warn("embedding provider unavailable, ranking by entity overlap: %v", err)
	}

	sel := selector.New(app.events, embedder, app.cfg.TemporalWindow())
	cls := classifier.NewAnthropicClassifier(classifier.Config{
		Model:     app.cfg.Classifier.Model,
		MaxTokens: app.cfg.Classifier.MaxTokens,
	})
	m := metrics.New(prometheus.NewRegistry())
	pipe := pipeline.New(app.events, sel, app.cache, cls, app.graph, m, app.cfg)

	// Threshold changes in the config file apply to subsequent events
	// while a long discovery run is in flight
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, func(cfg *config.Config) error {
			pipe.SetConfig(cfg)
			app.engine.SetConfig(cfg)
			return nil
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var results []*pipeline.Result
	if discoverEventID != "" {
		id, err := app.resolveEvent(discoverEventID)
		if err != nil {
			return err
		}
		result, err := pipe.DiscoverEvent(ctx, id)
		if err != nil {
			return err
		}
		results = append(results, result)
	} else {
		results, err = pipe.DiscoverAll(ctx)
		if err != nil {
			return err
		}
	}

	var discovered, cacheHits, failed int
	for _, result := range results {
		discovered += result.Discovered
		cacheHits += result.CacheHits
		failed += result.FailedBatches
	}
	fmt.Printf("Processed %d events: %d relationships discovered, %d cache hits, %d failed batches\n",
		len(results), discovered, cacheHits, failed)

	stats := app.engine.Stats()
	fmt.Printf("Graph: %d nodes, %d edges, %d pending\n",
		stats.Nodes, stats.Edges, stats.PendingEdges)

	if discoverCachePath != "" {
		if err := app.cache.SaveFile(discoverCachePath); err != nil {
			return err
		}
		logger.Info("cache snapshot saved to %s", discoverCachePath)
	}
	return nil
}

// buildEmbedder creates the cached embedding provider, or nil when the
// Voyage API key is absent so the selector falls back to entity overlap.
func buildEmbedder(app *app) (selector.Embedder, error) {
	voyage, err := embedding.NewVoyageProvider(app.cfg.Embedding.Model)
	if err != nil {
		return nil, err
	}
	cached, err := embedding.NewCachedProvider(voyage, app.cfg.Embedding.CacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
