package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/facultydash/internal/analytics"
	"github.com/lehigh-university-libraries/facultydash/internal/report"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var (
		batch  batchFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch graph analytics for a batch",
		Long: `Fetches subject averages and the risk distribution for a batch from the
results backend and prints them.

Supported formats: ` + strings.Join(report.Formats, ", ") + `. Parquet output
requires --output.`,
		Example: `  # Print analytics for the default batch
  facultydash fetch

  # Write subject cards for EC 2023 semester 2 as parquet
  facultydash fetch --branch EC --year 2023 --semester 2 --format parquet --output ec.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			b, err := batch.resolve(cfg.DefaultBatch)
			if err != nil {
				return fmt.Errorf("invalid batch: %w", err)
			}

			client := analytics.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
			a, err := client.FetchAnalytics(cmd.Context(), b)
			if err != nil {
				return fmt.Errorf("failed to fetch analytics: %w", err)
			}

			if err := report.WriteFile(output, a, format); err != nil {
				return err
			}
			if output != "" && output != "-" {
				slog.Info("Analytics written", "batch", b.Label(), "format", format, "output", output)
			}
			return nil
		},
	}

	batch.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format ("+strings.Join(report.Formats, ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}
