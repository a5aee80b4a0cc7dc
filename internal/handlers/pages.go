package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/facultydash/internal/export"
	"github.com/lehigh-university-libraries/facultydash/internal/models"
	"github.com/lehigh-university-libraries/facultydash/internal/session"
	"github.com/lehigh-university-libraries/facultydash/internal/views"
)

// Paths served by the graph analysis view
const (
	GraphPath  = "/graph-analysis"
	ChartPath  = "/graph-analysis.png"
	ExportPath = "/graph-analysis.pdf"
	PrintPath  = "/graph-analysis/print"
)

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, path string, opts session.NavigateOptions) (string, string, error) {
	id := h.sessionID(w, r)
	loc, err := h.shell.Navigate(id, path, opts)
	h.metrics.SetSessions(h.shell.Store().Len())
	return id, loc, err
}

func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, session.DashboardPath, http.StatusFound)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	id, _, err := h.navigate(w, r, session.DashboardPath, session.NavigateOptions{})
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writePage(w, http.StatusOK, views.PageDashboard, views.DashboardData{
		Header: views.HeaderFor("Faculty Dashboard", h.shell.Store().Selection(id)),
		Menu:   session.Menu,
	})
}

// HandleOpen navigates to a menu page, optionally selecting a batch first
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		path = session.DashboardPath
	}

	var opts session.NavigateOptions
	if q.Has("branch") || q.Has("year") || q.Has("semester") {
		b, err := parseBatch(q.Get("branch"), q.Get("year"), q.Get("semester"))
		if err != nil {
			h.writeError(w, "Invalid batch: "+err.Error(), http.StatusBadRequest)
			return
		}
		opts.Batch = &b
	}

	_, loc, err := h.navigate(w, r, path, opts)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, session.ErrUnknownPage) {
			code = http.StatusNotFound
		}
		h.writeError(w, err.Error(), code)
		return
	}
	http.Redirect(w, r, loc, http.StatusSeeOther)
}

// HandleMenuPage serves menu entries that live in other parts of the system
func (h *Handler) HandleMenuPage(w http.ResponseWriter, r *http.Request) {
	id, _, err := h.navigate(w, r, r.URL.Path, session.NavigateOptions{})
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	item, _ := session.MenuItemFor(r.URL.Path)
	h.writePage(w, http.StatusOK, views.PagePlaceholder, views.PlaceholderData{
		Header: views.HeaderFor(item.Title, h.shell.Store().Selection(id)),
		Item:   item,
	})
}

// HandleGraphAnalysis fetches fresh analytics on every visit and shows the
// subject cards with the chart capture, or the error that stopped the fetch
func (h *Handler) HandleGraphAnalysis(w http.ResponseWriter, r *http.Request) {
	id, _, err := h.navigate(w, r, GraphPath, session.NavigateOptions{})
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := views.GraphData{
		ChartURL:  ChartPath,
		ExportURL: ExportPath,
		PrintURL:  PrintPath,
	}
	code := http.StatusOK

	a, err := h.fetch(r.Context(), id)
	if err != nil {
		data.Error = errorMessage(err)
		code = errorStatus(err)
	}
	data.Analytics = a
	data.Header = views.HeaderFor("Graph Analysis", h.shell.Store().Selection(id))

	h.writePage(w, code, views.PageGraph, data)
}

// HandleChart serves the rasterized view as PNG
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	a, err := h.current(r.Context(), id)
	if err != nil {
		h.writeError(w, errorMessage(err), errorStatus(err))
		return
	}

	img, err := h.capture(h.viewFor(id, a))
	if err != nil {
		h.writeError(w, "Failed to render charts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		h.writeError(w, "Failed to encode charts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Unable to write chart", "err", err)
	}
}

// HandleExport streams the paginated PDF. When the export fails the client is
// sent to the printable page instead.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	a, err := h.current(r.Context(), id)
	if err != nil {
		h.writeError(w, errorMessage(err), errorStatus(err))
		return
	}

	view := h.viewFor(id, a)
	src := export.CaptureFunc(func(ctx context.Context) (image.Image, error) {
		return h.capture(view)
	})
	result := h.exporter.Export(r.Context(), src, export.Metadata{
		Batch:  a.Batch,
		Title:  "Graph Analysis " + a.Batch.Label(),
		Author: view.FacultyName,
	})

	doc, err := result.OrElse(r.Context(), export.FallbackFunc(func(ctx context.Context, reason error) error {
		h.metrics.ExportFellBack()
		http.Redirect(w, r, PrintPath, http.StatusSeeOther)
		return nil
	}))
	if err != nil {
		h.writeError(w, "Export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		return
	}

	h.metrics.ExportSucceeded(len(doc.Pages()))
	slog.Info("Exported graph analysis", "session", id, "file", doc.Filename, "pages", len(doc.Pages()))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes())))
	if _, err := doc.WriteTo(w); err != nil {
		slog.Error("Unable to write document", "err", err)
	}
}

// HandlePrint serves the printable fallback. The capture is inlined when it
// can be produced; the subject table is shown either way.
func (h *Handler) HandlePrint(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(w, r)
	a, err := h.current(r.Context(), id)
	if err != nil {
		h.writeError(w, errorMessage(err), errorStatus(err))
		return
	}

	data := views.PrintData{
		Header:    views.HeaderFor("Graph Analysis", h.shell.Store().Selection(id)),
		Analytics: a,
	}
	if img, err := h.capture(h.viewFor(id, a)); err != nil {
		slog.Warn("Printable view without capture", "err", err)
	} else if data.ImageData, err = views.PNGDataURL(img); err != nil {
		slog.Warn("Printable view without capture", "err", err)
	}

	h.writePage(w, http.StatusOK, views.PagePrint, data)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	loc := session.DashboardPath
	if c, err := r.Cookie(SessionCookie); err == nil {
		loc = h.shell.Logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	h.metrics.SetSessions(h.shell.Store().Len())
	http.Redirect(w, r, loc, http.StatusSeeOther)
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

func parseBatch(branch, year, semester string) (models.Batch, error) {
	b := models.Batch{Branch: strings.TrimSpace(branch)}
	var err error
	if b.Year, err = strconv.Atoi(year); err != nil {
		return b, errors.New("year must be an integer")
	}
	if b.Semester, err = strconv.Atoi(semester); err != nil {
		return b, errors.New("semester must be an integer")
	}
	return b, b.Validate()
}
