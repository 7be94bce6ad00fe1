// Package roster tracks which students of a class are still to be recognized
// during a scanning session and commits their attendance exactly once.
package roster

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/aakash670/smart-attendance/internal/database"
)

// MaxLogEntries is the number of recent recognitions kept in the log.
const MaxLogEntries = 5

// Mode selects how the roster is partitioned at session start.
type Mode string

const (
	// ModeKiosk scans only enrolled students and accepts several faces per frame.
	ModeKiosk Mode = "kiosk"
	// ModeLive tracks the full class and recognizes one face per capture.
	ModeLive Mode = "live"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeKiosk || m == ModeLive
}

// LogEntry records one recognition.
type LogEntry struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Timestamp   time.Time `json:"timestamp"`
}

// State is the pending/resolved partition of a class for one session.
// The two sets are disjoint and a student only ever moves pending -> resolved.
type State struct {
	mu         sync.RWMutex
	classID    string
	pending    map[string]database.Student
	resolved   map[string]database.Student
	committing map[string]bool
	log        []LogEntry
}

// Partition splits a class into pending and resolved students given today's
// records. A student with any record today counts as present.
func Partition(mode Mode, students []database.Student, today []database.AttendanceRecord) (pending, resolved []database.Student) {
	present := make(map[string]bool, len(today))
	for _, rec := range today {
		present[rec.StudentID] = true
	}
	for _, st := range students {
		switch {
		case present[st.ID]:
			resolved = append(resolved, st)
		case mode == ModeKiosk && !st.Enrolled():
			// not scannable, and not yet present
		default:
			pending = append(pending, st)
		}
	}
	return pending, resolved
}

// NewState creates the roster state. A student listed in both sets is resolved.
func NewState(classID string, pending, resolved []database.Student) *State {
	s := &State{
		classID:    classID,
		pending:    make(map[string]database.Student, len(pending)),
		resolved:   make(map[string]database.Student, len(resolved)),
		committing: make(map[string]bool),
	}
	for _, st := range resolved {
		s.resolved[st.ID] = st
	}
	for _, st := range pending {
		if _, ok := s.resolved[st.ID]; !ok {
			s.pending[st.ID] = st
		}
	}
	return s
}

// ClassID returns the class the roster belongs to.
func (s *State) ClassID() string {
	return s.classID
}

func sorted(m map[string]database.Student) []database.Student {
	out := make([]database.Student, 0, len(m))
	for _, st := range m {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b database.Student) int {
		return cmp.Or(cmp.Compare(a.RollNumber, b.RollNumber), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Pending returns the students still to be recognized, by roll number.
func (s *State) Pending() []database.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.pending)
}

// Resolved returns the students already present, by roll number.
func (s *State) Resolved() []database.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.resolved)
}

// Log returns the most recent recognitions, newest first.
func (s *State) Log() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.log)
}

// Complete reports whether nobody is pending.
func (s *State) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) == 0
}

// IsPending reports whether the student is still pending.
func (s *State) IsPending(studentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pending[studentID]
	return ok
}

// IsResolved reports whether the student is already present.
func (s *State) IsResolved(studentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.resolved[studentID]
	return ok
}

// claim reserves a pending student for commit. It fails when the student is
// not pending or another commit for them is in flight.
func (s *State) claim(studentID string) (database.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.pending[studentID]
	if !ok || s.committing[studentID] {
		return database.Student{}, false
	}
	s.committing[studentID] = true
	return st, true
}

// resolve moves a claimed student to resolved and logs the recognition.
func (s *State) resolve(st database.Student, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.committing, st.ID)
	delete(s.pending, st.ID)
	s.resolved[st.ID] = st

	entry := LogEntry{StudentID: st.ID, StudentName: st.Name, Timestamp: at}
	s.log = append([]LogEntry{entry}, s.log...)
	if len(s.log) > MaxLogEntries {
		s.log = s.log[:MaxLogEntries]
	}
}

// release returns a claimed student to plain pending after a failed commit.
func (s *State) release(studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.committing, studentID)
}

// lookup returns the student and which set holds it.
func (s *State) lookup(studentID string) (st database.Student, pending, resolved bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.resolved[studentID]; ok {
		return st, false, true
	}
	if st, ok := s.pending[studentID]; ok {
		return st, true, false
	}
	return database.Student{}, false, false
}
