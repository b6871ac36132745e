package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbracken/newsgraph/internal/config"
	"github.com/tbracken/newsgraph/internal/logging"
)

const Version = "0.1.0"

var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "newsgraph",
	Short: "Newsgraph - news causation graph engine",
	Long: `Newsgraph discovers causal relationships between news events and
assembles them into a directed causation graph that can be queried for
root causes, ripple effects, multi-hop paths, and cascade patterns.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML config file (defaults apply when omitted)")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(queryCmd)
}

// HandleError prints error and exits
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}

// loadConfig loads the configured YAML file, or defaults
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
