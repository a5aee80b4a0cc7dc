package session

import (
	"errors"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// ErrStaleTicket is returned when a fetch result no longer matches the
// session's selected batch
var ErrStaleTicket = errors.New("stale fetch result")

// Selection is the explicit context a view is rendered with
type Selection struct {
	Batch       *models.Batch `json:"batch"`
	FacultyName string        `json:"faculty_name"`
}

// Ticket tags a fetch cycle with the selection it was started for
type Ticket struct {
	SessionID  string
	Generation uint64
	Batch      models.Batch
}

type state struct {
	selection  Selection
	generation uint64
	analytics  *models.Analytics
	updatedAt  time.Time
}

// Store holds per-session selections and the analytics committed for them
type Store struct {
	sessions       map[string]*state
	defaultFaculty string
	mu             sync.RWMutex
}

// New creates a store. defaultFaculty is shown until a session sets its own name.
func New(defaultFaculty string) *Store {
	if defaultFaculty == "" {
		defaultFaculty = "Faculty"
	}
	return &Store{
		sessions:       make(map[string]*state),
		defaultFaculty: defaultFaculty,
	}
}

func (s *Store) ensure(id string) *state {
	st, ok := s.sessions[id]
	if !ok {
		st = &state{selection: Selection{FacultyName: s.defaultFaculty}, updatedAt: time.Now()}
		s.sessions[id] = st
	}
	return st
}

// Selection returns a copy of the session's current selection
func (s *Store) Selection(id string) Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return Selection{FacultyName: s.defaultFaculty}
	}
	sel := st.selection
	if sel.Batch != nil {
		b := *sel.Batch
		sel.Batch = &b
	}
	return sel
}

// SelectedBatch returns the session's batch, if one is selected
func (s *Store) SelectedBatch(id string) (models.Batch, bool) {
	sel := s.Selection(id)
	if sel.Batch == nil {
		return models.Batch{}, false
	}
	return *sel.Batch, true
}

// SetSelectedBatch replaces the session's batch. Any fetch still in flight
// for the previous selection becomes stale.
func (s *Store) SetSelectedBatch(id string, batch models.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.ensure(id)
	if st.selection.Batch != nil && *st.selection.Batch == batch {
		return nil
	}
	b := batch
	st.selection.Batch = &b
	st.generation++
	st.analytics = nil
	st.updatedAt = time.Now()
	return nil
}

// SetFacultyName sets the display name shown in headers
func (s *Store) SetFacultyName(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.ensure(id)
	if name == "" {
		name = s.defaultFaculty
	}
	st.selection.FacultyName = name
	st.updatedAt = time.Now()
}

// Begin starts a fetch cycle for the session's current batch
func (s *Store) Begin(id string) (Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok || st.selection.Batch == nil {
		return Ticket{}, models.ErrNoBatch
	}
	return Ticket{SessionID: id, Generation: st.generation, Batch: *st.selection.Batch}, nil
}

// Commit stores analytics fetched under t, unless the selection changed
// since t was issued
func (s *Store) Commit(t Ticket, a *models.Analytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[t.SessionID]
	if !ok || st.selection.Batch == nil {
		return ErrStaleTicket
	}
	if st.generation != t.Generation || *st.selection.Batch != t.Batch || a == nil || a.Batch != t.Batch {
		return ErrStaleTicket
	}
	st.analytics = a
	st.updatedAt = time.Now()
	return nil
}

// Fail ends the fetch cycle started by t without data. Analytics committed by
// an earlier cycle for the same selection are dropped.
func (s *Store) Fail(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[t.SessionID]
	if !ok || st.generation != t.Generation {
		return
	}
	st.analytics = nil
	st.updatedAt = time.Now()
}

// Analytics returns the analytics committed for the session's current batch
func (s *Store) Analytics(id string) (*models.Analytics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok || st.analytics == nil {
		return nil, false
	}
	return st.analytics, true
}

// Delete forgets everything about a session
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of known sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many were removed
func (s *Store) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, st := range s.sessions {
		if st.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
