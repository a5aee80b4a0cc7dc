package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/facultydash/internal/analytics"
	"github.com/lehigh-university-libraries/facultydash/internal/export"
	"github.com/lehigh-university-libraries/facultydash/internal/render"
	"github.com/lehigh-university-libraries/facultydash/internal/views"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		batch     batchFlags
		output    string
		pageSize  string
		landscape bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph analysis for a batch as a PDF",
		Long: `Renders the graph analysis view for a batch and slices it across pages of
the chosen size. The file is named after the batch unless --output is given.

If the document cannot be produced a printable HTML page is written next to
the requested output instead; opening it brings up the browser print dialog.`,
		Example: `  # Export the default batch on A4
  facultydash export

  # Export CS 2024 semester 4 on landscape Letter pages
  facultydash export --branch CS --year 2024 --semester 4 --page-size Letter --landscape`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			b, err := batch.resolve(cfg.DefaultBatch)
			if err != nil {
				return fmt.Errorf("invalid batch: %w", err)
			}
			if cmd.Flags().Changed("page-size") {
				cfg.Export.PageSize = pageSize
			}
			if cmd.Flags().Changed("landscape") {
				cfg.Export.Landscape = landscape
			}
			if output == "" {
				output = export.Filename(b)
			}

			geometry, err := export.PageSize(cfg.Export.PageSize, cfg.Export.Landscape)
			if err != nil {
				return err
			}

			client := analytics.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
			a, err := client.FetchAnalytics(cmd.Context(), b)
			if err != nil {
				return fmt.Errorf("failed to fetch analytics: %w", err)
			}

			view := render.View{Title: "Graph Analysis", Batch: b, FacultyName: cfg.FacultyName, Analytics: a}
			renderer := render.NewRenderer(cfg.Export.Scale)
			src := export.CaptureFunc(func(ctx context.Context) (image.Image, error) {
				return renderer.Render(view)
			})

			exporter := export.NewExporter(geometry)
			exporter.SettleDelay = cfg.Export.SettleDelay
			result := exporter.Export(cmd.Context(), src, export.Metadata{
				Batch:  b,
				Title:  "Graph Analysis " + b.Label(),
				Author: cfg.FacultyName,
			})

			printable := strings.TrimSuffix(output, ".pdf") + ".html"
			doc, err := result.OrElse(cmd.Context(), export.FallbackFunc(func(ctx context.Context, reason error) error {
				return writePrintable(printable, view, renderer)
			}))
			if err != nil {
				return err
			}
			if doc == nil {
				slog.Warn("Wrote printable page instead of PDF", "output", printable)
				return nil
			}

			if err := os.WriteFile(output, doc.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write PDF: %w", err)
			}
			slog.Info("Exported graph analysis",
				"batch", b.Label(),
				"output", output,
				"pages", len(doc.Pages()),
				"page_size", geometry.Name)
			return nil
		},
	}

	batch.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF path (default graph-analysis-<branch>-<year>-sem<semester>.pdf)")
	cmd.Flags().StringVar(&pageSize, "page-size", "A4", "Page size (A3, A4, A5, Letter, Legal)")
	cmd.Flags().BoolVar(&landscape, "landscape", false, "Use landscape pages")

	return cmd
}

// writePrintable writes the printable fallback page. The capture is inlined
// when the renderer can still produce it.
func writePrintable(path string, view render.View, renderer *render.Renderer) error {
	v, err := views.New()
	if err != nil {
		return err
	}

	b := view.Batch
	data := views.PrintData{
		Header:    views.Header{Title: view.Title, Batch: &b, FacultyName: view.FacultyName},
		Analytics: view.Analytics,
	}
	if img, err := renderer.Render(view); err == nil {
		if data.ImageData, err = views.PNGDataURL(img); err != nil {
			slog.Warn("Printable page without capture", "err", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create printable page: %w", err)
	}
	if err := v.Render(f, views.PagePrint, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
