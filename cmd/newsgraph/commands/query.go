package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbracken/newsgraph/internal/analysis"
	"github.com/tbracken/newsgraph/internal/models"
)

var (
	queryNewsPath     string
	queryCachePath    string
	queryPatternsPath string
	rippleDepth       int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the causation graph",
	Long: `Query a causation graph rebuilt from a news file and a relationship
cache snapshot produced by a previous discover run. Events may be
referenced by id or by a title substring.`,
}

var rootCauseCmd = &cobra.Command{
	Use:   "rootcause <event>",
	Short: "Find root cause candidates for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, id, err := queryApp(args[0])
		if err != nil {
			return err
		}
		result, err := app.engine.RootCauses(id)
		if err != nil {
			return err
		}
		if len(result.Candidates) == 0 {
			fmt.Printf("No root cause candidates for %s\n", describe(app, id))
		}
		for _, candidate := range result.Candidates {
			fmt.Printf("%s (path confidence %.2f)\n", describe(app, candidate.EventID), candidate.PathConfidence)
			printHops(app, candidate.Path)
		}
		noteBound(result.BoundReached)
		return nil
	},
}

var rippleCmd = &cobra.Command{
	Use:   "ripple <event>",
	Short: "Trace ripple effects downstream of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, id, err := queryApp(args[0])
		if err != nil {
			return err
		}
		depth := rippleDepth
		if depth <= 0 {
			depth = app.cfg.MaxDepth
		}
		result, err := app.engine.RippleEffects(id, depth)
		if err != nil {
			return err
		}
		if len(result.Effects) == 0 {
			fmt.Printf("No ripple effects from %s\n", describe(app, id))
		}
		for _, effect := range result.Effects {
			fmt.Printf("hop %d [%s] %s (confidence %.2f)\n",
				effect.Hop, effect.Level, describe(app, effect.EventID), effect.PathConfidence)
		}
		if len(result.ByCategory) > 0 {
			categories := make([]string, 0, len(result.ByCategory))
			for category := range result.ByCategory {
				categories = append(categories, category)
			}
			sort.Strings(categories)
			fmt.Println("\nAffected categories:")
			for _, category := range categories {
				fmt.Printf("  %s: %s\n", category, strings.Join(result.ByCategory[category], ", "))
			}
		}
		noteBound(result.BoundReached)
		return nil
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <source> <target>",
	Short: "Find the causal path between two events",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, sourceID, err := queryApp(args[0])
		if err != nil {
			return err
		}
		targetID, err := app.resolveEvent(args[1])
		if err != nil {
			return err
		}
		result, err := app.engine.FindPath(sourceID, targetID)
		if err != nil {
			return err
		}
		if !result.Found {
			fmt.Printf("No path from %s to %s within %d hops\n",
				describe(app, sourceID), describe(app, targetID), app.cfg.MaxPathHops)
			noteBound(result.BoundReached)
			return nil
		}
		fmt.Printf("Path (confidence %.2f):\n", result.Confidence)
		printHops(app, result.Hops)
		return nil
	},
}

var loopsCmd = &cobra.Command{
	Use:   "loops",
	Short: "Detect feedback loops in the graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := queryApp("")
		if err != nil {
			return err
		}
		loops := app.engine.FeedbackLoops()
		if len(loops) == 0 {
			fmt.Println("No feedback loops detected")
		}
		for _, loop := range loops {
			fmt.Printf("strength %.2f: %s\n", loop.Strength, strings.Join(loop.EventIDs, " -> "))
		}
		return nil
	},
}

var hubsCmd = &cobra.Command{
	Use:   "hubs",
	Short: "List high-degree hub events",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := queryApp("")
		if err != nil {
			return err
		}
		hubs := app.engine.Hubs()
		if len(hubs) == 0 {
			fmt.Println("No hubs detected")
		}
		for _, hub := range hubs {
			fmt.Printf("degree %d: %s\n", hub.Degree, describe(app, hub.EventID))
		}
		return nil
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Match known causation patterns and cascades",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := queryApp("")
		if err != nil {
			return err
		}

		templates := analysis.DefaultTemplates()
		if queryPatternsPath != "" {
			templates, err = analysis.LoadTemplates(queryPatternsPath)
			if err != nil {
				return err
			}
		}

		matches := app.engine.MatchPatterns(templates)
		if len(matches) == 0 {
			fmt.Println("No pattern matches")
		}
		for _, match := range matches {
			fmt.Printf("%s (confidence %.2f): %s\n",
				match.Template, match.Confidence, strings.Join(match.EventIDs, " -> "))
		}

		cascades := app.engine.Cascades()
		if len(cascades) > 0 {
			fmt.Println("\nCascades:")
			for _, chain := range cascades {
				ids := make([]string, len(chain.Nodes))
				for i, node := range chain.Nodes {
					ids[i] = node.EventID
				}
				fmt.Printf("score %.2f (confidence %.2f, impact %.1f): %s\n",
					chain.Score, chain.Confidence, chain.TotalImpact, strings.Join(ids, " -> "))
			}
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := queryApp("")
		if err != nil {
			return err
		}
		stats := app.engine.Stats()
		fmt.Printf("Events: %d\n", app.events.Len())
		fmt.Printf("Nodes: %d\n", stats.Nodes)
		fmt.Printf("Edges: %d\n", stats.Edges)
		fmt.Printf("Pending edges: %d\n", stats.PendingEdges)
		if len(stats.TypeHistogram) > 0 {
			fmt.Println("Relationship types:")
			for _, rt := range models.AllRelationTypes {
				if count := stats.TypeHistogram[rt]; count > 0 {
					fmt.Printf("  %s: %d\n", rt, count)
				}
			}
		}
		return nil
	},
}

func init() {
	queryCmd.PersistentFlags().StringVar(&queryNewsPath, "news", "",
		"Path to the news JSON file")
	queryCmd.PersistentFlags().StringVar(&queryCachePath, "cache", "",
		"Path to the relationship cache snapshot")
	_ = queryCmd.MarkPersistentFlagRequired("news")
	_ = queryCmd.MarkPersistentFlagRequired("cache")

	rippleCmd.Flags().IntVar(&rippleDepth, "depth", 0,
		"Maximum propagation depth (defaults to max_depth)")
	patternsCmd.Flags().StringVar(&queryPatternsPath, "patterns", "",
		"Path to a YAML pattern template file (defaults to built-ins)")

	queryCmd.AddCommand(rootCauseCmd)
	queryCmd.AddCommand(rippleCmd)
	queryCmd.AddCommand(pathCmd)
	queryCmd.AddCommand(loopsCmd)
	queryCmd.AddCommand(hubsCmd)
	queryCmd.AddCommand(patternsCmd)
	queryCmd.AddCommand(statsCmd)
}

// queryApp wires the app for a query command and resolves the subject
// event when one is given.
func queryApp(subject string) (*app, string, error) {
	a, err := newApp(queryNewsPath, queryCachePath)
	if err != nil {
		return nil, "", err
	}
	if subject == "" {
		return a, "", nil
	}
	id, err := a.resolveEvent(subject)
	if err != nil {
		return nil, "", err
	}
	return a, id, nil
}

// noteBound reminds the user that a depth/hop bound truncated the
// search, so an empty answer is not proof of absence.
func noteBound(reached bool) {
	if reached {
		fmt.Println("(search truncated by the configured depth bound)")
	}
}

func describe(a *app, id string) string {
	if event, ok := a.events.Get(id); ok {
		return fmt.Sprintf("%s (%s)", event.Title, id)
	}
	return id
}

func printHops(a *app, hops []models.Relationship) {
	for _, hop := range hops {
		fmt.Printf("  %s -[%s %.2f]-> %s\n",
			describe(a, hop.SourceID), hop.Type, hop.Confidence, describe(a, hop.TargetID))
	}
}
