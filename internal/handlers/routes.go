package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lehigh-university-libraries/facultydash/internal/session"
)

// Router registers every route. Each route is wrapped with request metrics.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	handle := func(path string, fn http.HandlerFunc, methods ...string) {
		router.Handle(path, h.metrics.WrapHandler(path, fn)).Methods(methods...)
	}

	handle("/", h.HandleRoot, http.MethodGet)
	handle(session.DashboardPath, h.HandleDashboard, http.MethodGet)
	handle("/open", h.HandleOpen, http.MethodGet)
	handle(GraphPath, h.HandleGraphAnalysis, http.MethodGet)
	handle(ChartPath, h.HandleChart, http.MethodGet)
	handle(ExportPath, h.HandleExport, http.MethodGet)
	handle(PrintPath, h.HandlePrint, http.MethodGet)
	handle("/api/selection", h.HandleSelection, http.MethodGet, http.MethodPut)
	handle("/api/analytics", h.HandleAnalytics, http.MethodGet)
	handle("/logout", h.HandleLogout, http.MethodPost)
	handle("/healthcheck", h.HandleHealthcheck, http.MethodGet)

	for _, item := range session.Menu {
		if item.Path == GraphPath {
			continue
		}
		handle(item.Path, h.HandleMenuPage, http.MethodGet)
	}

	if h.metrics != nil {
		router.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}

	return router
}
