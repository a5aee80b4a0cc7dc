package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// MenuItem is one entry of the faculty dashboard menu
type MenuItem struct {
	Title       string
	Description string
	Path        string
	Primary     bool
}

// Menu lists the dashboard entries in display order
var Menu = []MenuItem{
	{Title: "Data Upload", Description: "Upload CSV or manual entry", Path: "/uploads"},
	{Title: "Student Report", Description: "View & analyze student reports", Path: "/student-report"},
	{Title: "Results Search", Description: "Search results by PIN / batch", Path: "/results-search"},
	{Title: "Graph Analysis", Description: "View graphs and progress cards", Path: "/graph-analysis", Primary: true},
	{Title: "Uploaded Files", Description: "Manage uploaded files", Path: "/uploaded-files"},
}

// ErrUnknownPage is returned when navigating to a path outside the menu
var ErrUnknownPage = errors.New("unknown page")

// DashboardPath is where the shell lands after logout
const DashboardPath = "/dashboard"

// NavigateOptions carry an explicit batch to select while navigating
type NavigateOptions struct {
	Batch *models.Batch
}

// Shell is the navigation layer over a Store
type Shell struct {
	store        *Store
	defaultBatch models.Batch
}

// NewShell creates a shell. defaultBatch is selected when a session opens a
// page without having chosen a batch.
func NewShell(store *Store, defaultBatch models.Batch) *Shell {
	return &Shell{store: store, defaultBatch: defaultBatch}
}

// Store returns the underlying session store
func (sh *Shell) Store() *Store {
	return sh.store
}

// MenuItemFor looks up a menu entry by path
func MenuItemFor(path string) (MenuItem, bool) {
	for _, item := range Menu {
		if item.Path == path {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Navigate resolves path for a session and returns the location to open.
// An explicit batch in opts is selected; otherwise the default batch is
// installed if the session has none.
func (sh *Shell) Navigate(id, path string, opts NavigateOptions) (string, error) {
	if path != DashboardPath {
		if _, ok := MenuItemFor(path); !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownPage, path)
		}
	}

	switch {
	case opts.Batch != nil:
		if err := sh.store.SetSelectedBatch(id, *opts.Batch); err != nil {
			return "", fmt.Errorf("invalid batch: %w", err)
		}
	default:
		if _, ok := sh.store.SelectedBatch(id); !ok && sh.defaultBatch.Validate() == nil {
			if err := sh.store.SetSelectedBatch(id, sh.defaultBatch); err != nil {
				return "", err
			}
		}
	}

	slog.Debug("Navigate", "session", id, "path", path)
	return path, nil
}

// Logout drops the session's selection and analytics
func (sh *Shell) Logout(id string) string {
	sh.store.Delete(id)
	slog.Info("Session logged out", "session", id)
	return DashboardPath
}
