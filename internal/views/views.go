// Package views renders the dashboard's HTML pages.
package views

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"io"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
	"github.com/lehigh-university-libraries/facultydash/internal/render"
	"github.com/lehigh-university-libraries/facultydash/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	PageDashboard   = "dashboard"
	PageGraph       = "graph"
	PagePrint       = "print"
	PagePlaceholder = "placeholder"
)

// Header is shown at the top of every page
type Header struct {
	Title       string
	Batch       *models.Batch
	FacultyName string
}

// HeaderFor builds a page header from a session selection
func HeaderFor(title string, sel session.Selection) Header {
	return Header{Title: title, Batch: sel.Batch, FacultyName: sel.FacultyName}
}

type DashboardData struct {
	Header Header
	Menu   []session.MenuItem
}

// GraphData drives the graph analysis page. When Error is set no charts are
// rendered.
type GraphData struct {
	Header    Header
	Analytics *models.Analytics
	Error     string
	ChartURL  string
	ExportURL string
	PrintURL  string
}

// PrintData is the printable fallback; it opens the browser print dialog on load
type PrintData struct {
	Header    Header
	Analytics *models.Analytics
	ImageData template.URL
}

type PlaceholderData struct {
	Header Header
	Item   session.MenuItem
}

type Views struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"percent": render.ClampPercent,
	"color": func(i int) template.CSS {
		return template.CSS(render.Palette[i%len(render.Palette)])
	},
}

// New parses the embedded templates
func New() (*Views, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	v := &Views{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageDashboard, PageGraph, PagePrint, PagePlaceholder} {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout: %w", err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// Render executes page into w. Output is buffered so a template error never
// leaves a half-written page.
func (v *Views) Render(w io.Writer, page string, data any) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page: %s", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// PNGDataURL encodes img for inline use in the printable page
func PNGDataURL(img image.Image) (template.URL, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}
