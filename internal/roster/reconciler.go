package roster

import (
	"context"
	"time"

	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/facematch"
)

// Outcome is what reconciling one match did.
type Outcome string

const (
	OutcomeUnknown        Outcome = "unknown"
	OutcomeAlreadyPresent Outcome = "already_present"
	OutcomeMarked         Outcome = "marked"
	OutcomeNotInRoster    Outcome = "not_in_roster"
	OutcomeWriteFailed    Outcome = "write_failed"
)

// Marker records attendance for a student.
type Marker interface {
	Mark(ctx context.Context, studentID, classID string, status database.AttendanceStatus) (*database.AttendanceRecord, error)
}

// Result describes the reconciliation of one match.
type Result struct {
	Outcome Outcome                    `json:"outcome"`
	Match   facematch.MatchResult      `json:"match"`
	Student *database.Student          `json:"student,omitempty"`
	Record  *database.AttendanceRecord `json:"record,omitempty"`
}

// Reconciler applies match results to a roster state.
type Reconciler struct {
	state  *State
	marker Marker
	now    func() time.Time
}

// NewReconciler creates a reconciler. now defaults to time.Now.
func NewReconciler(state *State, marker Marker, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{state: state, marker: marker, now: now}
}

// State returns the roster state being reconciled.
func (r *Reconciler) State() *State {
	return r.state
}

// Reconcile applies one match. A pending student is marked Present and moved
// to resolved; every other label leaves the state untouched. On a failed write
// the student stays pending and the error is returned.
func (r *Reconciler) Reconcile(ctx context.Context, match facematch.MatchResult) (Result, error) {
	res := Result{Match: match}
	if !match.Known() {
		res.Outcome = OutcomeUnknown
		return res, nil
	}

	st, pending, resolved := r.state.lookup(match.Label)
	switch {
	case resolved:
		res.Outcome = OutcomeAlreadyPresent
		res.Student = &st
		return res, nil
	case !pending:
		res.Outcome = OutcomeNotInRoster
		return res, nil
	}

	res.Student = &st
	if _, ok := r.state.claim(st.ID); !ok {
		// Resolved or being committed by a concurrent reconcile.
		res.Outcome = OutcomeAlreadyPresent
		return res, nil
	}

	rec, err := r.marker.Mark(ctx, st.ID, r.state.ClassID(), database.StatusPresent)
	if err != nil {
		r.state.release(st.ID)
		res.Outcome = OutcomeWriteFailed
		return res, err
	}

	r.state.resolve(st, r.now())
	res.Outcome = OutcomeMarked
	res.Record = rec
	return res, nil
}
