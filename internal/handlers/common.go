package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/facultydash/internal/analytics"
	"github.com/lehigh-university-libraries/facultydash/internal/export"
	"github.com/lehigh-university-libraries/facultydash/internal/metrics"
	"github.com/lehigh-university-libraries/facultydash/internal/models"
	"github.com/lehigh-university-libraries/facultydash/internal/render"
	"github.com/lehigh-university-libraries/facultydash/internal/session"
	"github.com/lehigh-university-libraries/facultydash/internal/views"
)

// SessionCookie names the cookie carrying the session id
const SessionCookie = "facultydash_session"

// CaptureFunc rasterizes a view for the png and pdf endpoints
type CaptureFunc func(render.View) (image.Image, error)

// Options wires a Handler to its collaborators
type Options struct {
	Shell    *session.Shell
	Client   *analytics.Client
	Exporter *export.Exporter
	Views    *views.Views
	Metrics  *metrics.Metrics
	Capture  CaptureFunc
}

type Handler struct {
	shell    *session.Shell
	client   *analytics.Client
	exporter *export.Exporter
	views    *views.Views
	metrics  *metrics.Metrics
	capture  CaptureFunc
}

func New(opts Options) *Handler {
	capture := opts.Capture
	if capture == nil {
		capture = render.NewRenderer(render.DefaultScale).Render
	}
	if opts.Client != nil && opts.Metrics != nil {
		opts.Client.Observer = opts.Metrics
	}
	return &Handler{
		shell:    opts.Shell,
		client:   opts.Client,
		exporter: opts.Exporter,
		views:    opts.Views,
		metrics:  opts.Metrics,
		capture:  capture,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) writePage(w http.ResponseWriter, code int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := h.views.Render(w, page, data); err != nil {
		slog.Error("Unable to render page", "page", page, "err", err)
	}
}

// Session helpers
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("Session created", "session", id)
	return id
}

// fetch runs one fetch cycle for the session's current batch. A result for a
// batch that is no longer selected is dropped.
func (h *Handler) fetch(ctx context.Context, id string) (*models.Analytics, error) {
	store := h.shell.Store()
	ticket, err := store.Begin(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	a, err := h.client.FetchAnalytics(ctx, ticket.Batch)
	if err != nil {
		slog.Error("Analytics fetch failed", "session", id, "batch", ticket.Batch.Label(), "err", err)
		store.Fail(ticket)
		return nil, err
	}

	if err := store.Commit(ticket, a); err != nil {
		h.metrics.StaleResponse()
		slog.Info("Dropped stale analytics", "session", id, "batch", ticket.Batch.Label())
		return nil, err
	}

	slog.Info("Analytics loaded",
		"session", id,
		"batch", ticket.Batch.Label(),
		"subjects", len(a.Subjects),
		"duration", time.Since(start))
	return a, nil
}

// current returns committed analytics for the session, fetching if there are none
func (h *Handler) current(ctx context.Context, id string) (*models.Analytics, error) {
	if a, ok := h.shell.Store().Analytics(id); ok {
		return a, nil
	}
	return h.fetch(ctx, id)
}

func (h *Handler) viewFor(id string, a *models.Analytics) render.View {
	sel := h.shell.Store().Selection(id)
	v := render.View{Title: "Graph Analysis", FacultyName: sel.FacultyName, Analytics: a}
	if sel.Batch != nil {
		v.Batch = *sel.Batch
	}
	return v
}

// errorMessage is the user-visible text for a failed load
func errorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrNoBatch):
		return "Select a batch to view graph analysis."
	case errors.Is(err, session.ErrStaleTicket):
		return "The selected batch changed while loading. Reload to see the latest data."
	default:
		return "Failed to load analytics: " + err.Error()
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrNoBatch):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrStaleTicket):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
