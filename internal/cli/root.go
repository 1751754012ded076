// Package cli provides the command-line interface for the copilot.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/datacopilot/internal/config"
	"github.com/raphaelgruber/datacopilot/internal/llm"
	"github.com/raphaelgruber/datacopilot/internal/metrics"
	"github.com/raphaelgruber/datacopilot/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, loaded in PersistentPreRunE
	cfg config.Config

	// Lazy-initialized LLM components
	model      *llm.Model
	controller *pipeline.Controller
	collector  *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "Analytics question-answering copilot",
	Long: `Copilot routes a free-text analytics question through intent
classification, clarification gathering, answer generation, validation and
confidence auditing.

Upload a CSV alongside the question to ground query and chart answers in the
actual dataset schema.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that never touch the model skip configuration.
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "dataset" {
			return nil
		}

		cfg = config.Load()

		level := slog.LevelWarn
		if verbose {
			level = cfg.LogLevel
		}
		logger, _ := config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)

		return nil
	},
}

// getController lazily builds the model client and pipeline controller.
func getController(ctx context.Context) (*pipeline.Controller, error) {
	if controller != nil {
		return controller, nil
	}

	var err error
	model, err = llm.NewModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init model: %w", err)
	}

	collector = metrics.NewCollector()
	controller = pipeline.NewController(model, collector, slog.Default())
	return controller, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(datasetCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
