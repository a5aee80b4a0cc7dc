package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/facultydash/internal/report"
)

func newReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <file.parquet>",
		Short: "Print subject rows from a parquet report",
		Long: `Reads a parquet file written by "fetch --format parquet" and prints its
subject rows.

Supported formats: ` + strings.Join(report.RowFormats, ", ") + `.`,
		Example: `  facultydash fetch --format parquet --output cs.parquet
  facultydash report cs.parquet --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := report.ReadParquet(args[0])
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}
			return report.WriteRows(cmd.OutOrStdout(), rows, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format ("+strings.Join(report.RowFormats, ", ")+")")

	return cmd
}
