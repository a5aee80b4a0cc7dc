package session

import (
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

func TestNavigateInstallsDefaultBatch(t *testing.T) {
	sh := NewShell(New(""), cs2024)

	loc, err := sh.Navigate("a", "/student-report", NavigateOptions{})
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if loc != "/student-report" {
		t.Errorf("Expected /student-report, got %q", loc)
	}
	if got, ok := sh.Store().SelectedBatch("a"); !ok || got != cs2024 {
		t.Errorf("Expected default batch, got %+v (%v)", got, ok)
	}
}

func TestNavigateKeepsExistingBatch(t *testing.T) {
	sh := NewShell(New(""), cs2024)
	_ = sh.Store().SetSelectedBatch("a", ec2023)

	if _, err := sh.Navigate("a", "/results-search", NavigateOptions{}); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if got, _ := sh.Store().SelectedBatch("a"); got != ec2023 {
		t.Errorf("Expected existing batch kept, got %+v", got)
	}
}

func TestNavigateWithExplicitBatch(t *testing.T) {
	sh := NewShell(New(""), cs2024)
	_ = sh.Store().SetSelectedBatch("a", cs2024)

	b := ec2023
	if _, err := sh.Navigate("a", "/graph-analysis", NavigateOptions{Batch: &b}); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if got, _ := sh.Store().SelectedBatch("a"); got != ec2023 {
		t.Errorf("Expected explicit batch, got %+v", got)
	}

	bad := models.Batch{Branch: "CS"}
	if _, err := sh.Navigate("a", "/graph-analysis", NavigateOptions{Batch: &bad}); err == nil {
		t.Error("Expected invalid batch to be rejected")
	}
}

func TestNavigateUnknownPath(t *testing.T) {
	sh := NewShell(New(""), cs2024)

	if _, err := sh.Navigate("a", "/admin", NavigateOptions{}); !errors.Is(err, ErrUnknownPage) {
		t.Errorf("Expected ErrUnknownPage, got %v", err)
	}
	if _, ok := sh.Store().SelectedBatch("a"); ok {
		t.Error("failed navigation must not select a batch")
	}
}

func TestLogout(t *testing.T) {
	sh := NewShell(New(""), cs2024)
	_, _ = sh.Navigate("a", "/graph-analysis", NavigateOptions{})

	if loc := sh.Logout("a"); loc != DashboardPath {
		t.Errorf("Expected %s, got %s", DashboardPath, loc)
	}
	if _, ok := sh.Store().SelectedBatch("a"); ok {
		t.Error("Expected selection cleared after logout")
	}
}

func TestMenuHasGraphAnalysis(t *testing.T) {
	item, ok := MenuItemFor("/graph-analysis")
	if !ok || !item.Primary {
		t.Errorf("Expected primary graph analysis entry, got %+v (%v)", item, ok)
	}
	if len(Menu) != 5 {
		t.Errorf("Expected 5 menu entries, got %d", len(Menu))
	}
}
