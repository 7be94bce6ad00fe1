package roster

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/facematch"
)

var fixedNow = time.Date(2026, 3, 11, 9, 30, 0, 0, time.Local)

func clock() time.Time { return fixedNow }

type fakeMarker struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
	delay time.Duration
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{calls: make(map[string]int)}
}

func (f *fakeMarker) Mark(ctx context.Context, studentID, classID string, status database.AttendanceStatus) (*database.AttendanceRecord, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[studentID]++
	if f.err != nil {
		return nil, f.err
	}
	return &database.AttendanceRecord{
		ID:        "rec-" + studentID,
		StudentID: studentID,
		ClassID:   classID,
		Date:      database.Day(fixedNow),
		Status:    status,
		Timestamp: fixedNow,
	}, nil
}

func (f *fakeMarker) count(studentID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[studentID]
}

func enrolled(id, roll string) database.Student {
	return database.Student{ID: id, Name: "Student " + id, RollNumber: roll, ClassID: "class01", Descriptor: []float32{1, 2, 3}}
}

func unenrolled(id, roll string) database.Student {
	return database.Student{ID: id, Name: "Student " + id, RollNumber: roll, ClassID: "class01"}
}

func known(label string) facematch.MatchResult {
	return facematch.MatchResult{Label: label, Distance: 0.3}
}

func ids(students []database.Student) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPartition(t *testing.T) {
	students := []database.Student{
		enrolled("s1", "01"),
		enrolled("s2", "02"),
		unenrolled("s3", "03"),
		unenrolled("s4", "04"),
	}
	today := []database.AttendanceRecord{
		{StudentID: "s2", Status: database.StatusAbsent},
		{StudentID: "s4", Status: database.StatusLate},
	}

	tests := []struct {
		mode         Mode
		wantPending  []string
		wantResolved []string
	}{
		{ModeKiosk, []string{"s1"}, []string{"s2", "s4"}},
		{ModeLive, []string{"s1", "s3"}, []string{"s2", "s4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			pending, resolved := Partition(tt.mode, students, today)
			if !equalIDs(ids(pending), tt.wantPending) {
				t.Errorf("pending = %v, want %v", ids(pending), tt.wantPending)
			}
			if !equalIDs(ids(resolved), tt.wantResolved) {
				t.Errorf("resolved = %v, want %v", ids(resolved), tt.wantResolved)
			}
		})
	}
}

func TestMode_Valid(t *testing.T) {
	if !ModeKiosk.Valid() || !ModeLive.Valid() {
		t.Error("expected kiosk and live to be valid")
	}
	if Mode("batch").Valid() {
		t.Error("unexpected valid mode")
	}
}

func TestNewState_ResolvedWins(t *testing.T) {
	s := NewState("class01",
		[]database.Student{enrolled("s1", "01"), enrolled("s2", "02")},
		[]database.Student{enrolled("s2", "02")},
	)
	if s.IsPending("s2") {
		t.Error("s2 should not be pending")
	}
	if !s.IsResolved("s2") {
		t.Error("s2 should be resolved")
	}
	if !equalIDs(ids(s.Pending()), []string{"s1"}) {
		t.Errorf("pending = %v", ids(s.Pending()))
	}
}

func TestReconcile_MarksPendingStudent(t *testing.T) {
	s := NewState("class01", []database.Student{enrolled("s1", "01"), enrolled("s2", "02")}, nil)
	m := newFakeMarker()
	r := NewReconciler(s, m, clock)

	res, err := r.Reconcile(context.Background(), known("s1"))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Outcome != OutcomeMarked {
		t.Errorf("expected marked, got %s", res.Outcome)
	}
	if res.Record == nil || res.Record.Status != database.StatusPresent {
		t.Errorf("expected Present record, got %+v", res.Record)
	}
	if res.Student == nil || res.Student.ID != "s1" {
		t.Errorf("unexpected student %+v", res.Student)
	}
	if s.IsPending("s1") || !s.IsResolved("s1") {
		t.Error("s1 should have moved to resolved")
	}
	log := s.Log()
	if len(log) != 1 || log[0].StudentID != "s1" || !log[0].Timestamp.Equal(fixedNow) {
		t.Errorf("unexpected log %+v", log)
	}
	if s.Complete() {
		t.Error("s2 still pending")
	}
}

func TestReconcile_IsIdempotent(t *testing.T) {
	s := NewState("class01", []database.Student{enrolled("s1", "01")}, nil)
	m := newFakeMarker()
	r := NewReconciler(s, m, clock)
	ctx := context.Background()

	if _, err := r.Reconcile(ctx, known("s1")); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	for i := 0; i < 3; i++ {
		res, err := r.Reconcile(ctx, known("s1"))
		if err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
		if res.Outcome != OutcomeAlreadyPresent {
			t.Errorf("expected already_present, got %s", res.Outcome)
		}
	}
	if got := m.count("s1"); got != 1 {
		t.Errorf("expected 1 write, got %d", got)
	}
	if len(s.Log()) != 1 {
		t.Errorf("expected 1 log entry, got %d", len(s.Log()))
	}
	if !s.Complete() {
		t.Error("expected complete roster")
	}
}

func TestReconcile_LeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name  string
		match facematch.MatchResult
		want  Outcome
	}{
		{"unknown", facematch.MatchResult{Label: facematch.UnknownLabel, Distance: 0.9}, OutcomeUnknown},
		{"empty label", facematch.MatchResult{}, OutcomeUnknown},
		{"another class", known("s9"), OutcomeNotInRoster},
		{"already present", known("s2"), OutcomeAlreadyPresent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState("class01", []database.Student{enrolled("s1", "01")}, []database.Student{enrolled("s2", "02")})
			m := newFakeMarker()
			r := NewReconciler(s, m, clock)

			res, err := r.Reconcile(context.Background(), tt.match)
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if res.Outcome != tt.want {
				t.Errorf("outcome = %s, want %s", res.Outcome, tt.want)
			}
			if !equalIDs(ids(s.Pending()), []string{"s1"}) || !equalIDs(ids(s.Resolved()), []string{"s2"}) {
				t.Errorf("state changed: pending=%v resolved=%v", ids(s.Pending()), ids(s.Resolved()))
			}
			if len(m.calls) != 0 {
				t.Errorf("unexpected writes %v", m.calls)
			}
			if len(s.Log()) != 0 {
				t.Error("unexpected log entry")
			}
		})
	}
}

func TestReconcile_WriteFailureKeepsPending(t *testing.T) {
	s := NewState("class01", []database.Student{enrolled("s1", "01")}, nil)
	m := newFakeMarker()
	m.err = errors.New("connection reset")
	r := NewReconciler(s, m, clock)
	ctx := context.Background()

	res, err := r.Reconcile(ctx, known("s1"))
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Outcome != OutcomeWriteFailed {
		t.Errorf("expected write_failed, got %s", res.Outcome)
	}
	if !s.IsPending("s1") || s.IsResolved("s1") {
		t.Error("s1 should still be pending")
	}
	if len(s.Log()) != 0 {
		t.Error("failed write logged")
	}

	m.err = nil
	res, err = r.Reconcile(ctx, known("s1"))
	if err != nil || res.Outcome != OutcomeMarked {
		t.Errorf("expected retry to mark, got %s, %v", res.Outcome, err)
	}
}

func TestReconcile_ConcurrentMatchesWriteOnce(t *testing.T) {
	s := NewState("class01", []database.Student{enrolled("s1", "01")}, nil)
	m := newFakeMarker()
	m.delay = 10 * time.Millisecond
	r := NewReconciler(s, m, clock)

	var marked atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Reconcile(context.Background(), known("s1"))
			if err != nil {
				t.Errorf("Reconcile: %v", err)
				return
			}
			if res.Outcome == OutcomeMarked {
				marked.Add(1)
			}
		}()
	}
	wg.Wait()

	if marked.Load() != 1 {
		t.Errorf("expected exactly one marked outcome, got %d", marked.Load())
	}
	if m.count("s1") != 1 {
		t.Errorf("expected 1 write, got %d", m.count("s1"))
	}
}

func TestLog_KeepsNewestFive(t *testing.T) {
	var pending []database.Student
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7"} {
		pending = append(pending, enrolled(id, id))
	}
	s := NewState("class01", pending, nil)
	r := NewReconciler(s, newFakeMarker(), clock)

	for _, st := range pending {
		if _, err := r.Reconcile(context.Background(), known(st.ID)); err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
	}

	log := s.Log()
	if len(log) != MaxLogEntries {
		t.Fatalf("expected %d entries, got %d", MaxLogEntries, len(log))
	}
	want := []string{"s7", "s6", "s5", "s4", "s3"}
	for i, e := range log {
		if e.StudentID != want[i] {
			t.Errorf("log[%d] = %s, want %s", i, e.StudentID, want[i])
		}
	}
	if !s.Complete() {
		t.Error("expected complete roster")
	}
}

func TestState_DisjointAfterReconcile(t *testing.T) {
	s := NewState("class01",
		[]database.Student{enrolled("s1", "01"), enrolled("s2", "02"), enrolled("s3", "03")},
		[]database.Student{enrolled("s4", "04")},
	)
	r := NewReconciler(s, newFakeMarker(), clock)
	ctx := context.Background()
	for _, label := range []string{"s2", "s4", facematch.UnknownLabel, "s2", "s1"} {
		_, _ = r.Reconcile(ctx, known(label))
	}

	seen := map[string]bool{}
	for _, st := range s.Pending() {
		seen[st.ID] = true
	}
	for _, st := range s.Resolved() {
		if seen[st.ID] {
			t.Errorf("%s is both pending and resolved", st.ID)
		}
		seen[st.ID] = true
	}
	if len(seen) != 4 {
		t.Errorf("students lost or added: %v", seen)
	}
	if !equalIDs(ids(s.Resolved()), []string{"s1", "s2", "s4"}) {
		t.Errorf("resolved = %v", ids(s.Resolved()))
	}
}
