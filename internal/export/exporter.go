// Package export turns a rasterized capture of the dashboard into a
// paginated PDF document.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// DefaultSettleDelay gives pending rendering a moment before the capture is taken
const DefaultSettleDelay = 250 * time.Millisecond

// CaptureSource produces a rasterized snapshot of a rendered region
type CaptureSource interface {
	Capture(ctx context.Context) (image.Image, error)
}

// CaptureFunc adapts a function to CaptureSource
type CaptureFunc func(ctx context.Context) (image.Image, error)

func (f CaptureFunc) Capture(ctx context.Context) (image.Image, error) {
	return f(ctx)
}

// Metadata is embedded in the generated document
type Metadata struct {
	Batch  models.Batch
	Title  string
	Author string
}

// Document is a finished export
type Document struct {
	ID       string
	Filename string
	Layout   Layout
	data     []byte
}

// Pages returns the placed pages in slice order
func (d *Document) Pages() []PlacedPage {
	return d.Layout.Pages
}

// Bytes returns the encoded PDF
func (d *Document) Bytes() []byte {
	return d.data
}

// WriteTo writes the encoded PDF to w
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.data)
	return int64(n), err
}

// Filename is the deterministic artifact name for a batch. Branch characters
// outside [A-Za-z0-9_-] become underscores so the name never leaves the
// directory it is written to.
func Filename(b models.Batch) string {
	return fmt.Sprintf("graph-analysis-%s-%d-sem%d.pdf", safeName(b.Branch), b.Year, b.Semester)
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// Exporter slices captures across fixed-size pages
type Exporter struct {
	Geometry    Geometry
	SettleDelay time.Duration
	Compress    bool
}

// NewExporter creates an exporter for the given page geometry
func NewExporter(g Geometry) *Exporter {
	return &Exporter{
		Geometry:    g,
		SettleDelay: DefaultSettleDelay,
		Compress:    true,
	}
}

// Export captures src and lays it out over pages. It never returns a
// partially written document: any failure is reported through the Result.
func (e *Exporter) Export(ctx context.Context, src CaptureSource, meta Metadata) Result {
	if src == nil {
		return Err(fmt.Errorf("capture source not available"))
	}

	if e.SettleDelay > 0 {
		timer := time.NewTimer(e.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Err(ctx.Err())
		case <-timer.C:
		}
	}

	capture, err := src.Capture(ctx)
	if err != nil {
		return Err(fmt.Errorf("failed to capture region: %w", err))
	}
	if capture == nil {
		return Err(fmt.Errorf("capture source returned no image"))
	}

	doc, err := e.Render(capture, meta)
	if err != nil {
		return Err(err)
	}
	return Ok(doc)
}

// Render lays out an existing capture and encodes it as PDF
func (e *Exporter) Render(capture image.Image, meta Metadata) (*Document, error) {
	b := capture.Bounds()
	layout, err := NewLayout(b.Dx(), b.Dy(), e.Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out capture: %w", err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: e.Geometry.Width, Ht: e.Geometry.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(e.Compress)
	pdf.SetCreator("facultydash", true)
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	if meta.Author != "" {
		pdf.SetAuthor(meta.Author, true)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for _, page := range layout.Pages {
		slice, err := sliceRows(capture, page.Segment)
		if err != nil {
			return nil, fmt.Errorf("failed to slice page %d: %w", page.Index+1, err)
		}

		name := fmt.Sprintf("page-%d", page.Index)
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(slice))
		pdf.ImageOptions(name, 0, 0, page.Width, page.Height, false, opts, 0, "")
		if pdf.Err() {
			return nil, fmt.Errorf("failed to place page %d: %w", page.Index+1, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	doc := &Document{
		ID:       uuid.NewString(),
		Filename: Filename(meta.Batch),
		Layout:   layout,
		data:     buf.Bytes(),
	}

	slog.Debug("PDF rendered",
		"id", doc.ID,
		"file", doc.Filename,
		"pages", len(layout.Pages),
		"capture_width", layout.Width,
		"capture_height", layout.Height,
		"capacity_px", layout.CapacityPx,
		"bytes", len(doc.data))

	return doc, nil
}

// sliceRows copies rows [s.Y, s.End()) of src into a PNG
func sliceRows(src image.Image, s Segment) ([]byte, error) {
	b := src.Bounds()
	rect := image.Rect(0, 0, b.Dx(), s.Height)
	dst := image.NewRGBA(rect)
	draw.Draw(dst, rect, src, image.Pt(b.Min.X, b.Min.Y+s.Y), draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
