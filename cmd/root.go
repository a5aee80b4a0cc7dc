package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/facultydash/internal/config"
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	configPath string
	backend    string
	faculty    string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "facultydash",
		Short: "Faculty dashboard for batch results analytics",
		Long: `facultydash serves the faculty dashboard: a menu of result tools and a
graph analysis view of subject averages and student risk for a batch.

It can also fetch analytics and export the graph analysis as a paginated PDF
from the command line.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(opts.verbose)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Results backend base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.faculty, "faculty", "", "Faculty name shown in page headers (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newFetchCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// load resolves configuration: file, then environment, then flags
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if o.backend != "" {
		cfg.Backend.URL = o.backend
	}
	if o.faculty != "" {
		cfg.FacultyName = o.faculty
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
