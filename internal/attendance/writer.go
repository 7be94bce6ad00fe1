// Package attendance records daily attendance and builds reports and
// notifications from it.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aakash670/smart-attendance/internal/database"
)

// ErrInvalidStatus is returned for a status other than Present, Absent or Late.
var ErrInvalidStatus = errors.New("invalid attendance status")

// Writer stores at most one attendance record per student and day.
type Writer struct {
	records database.AttendanceWriter
	now     func() time.Time
}

// NewWriter creates a writer. now defaults to time.Now.
func NewWriter(records database.AttendanceWriter, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{records: records, now: now}
}

// Today returns the current local calendar day as YYYY-MM-DD.
func (w *Writer) Today() string {
	return database.Day(w.now())
}

// Mark records the status of a student for today, replacing any earlier record
// of the same day.
func (w *Writer) Mark(ctx context.Context, studentID, classID string, status database.AttendanceStatus) (*database.AttendanceRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if studentID == "" || classID == "" {
		return nil, errors.New("student and class are required")
	}

	now := w.now()
	rec := &database.AttendanceRecord{
		ID:        uuid.NewString(),
		StudentID: studentID,
		ClassID:   classID,
		Date:      database.Day(now),
		Status:    status,
		Timestamp: now,
	}
	if err := w.records.ReplaceForDay(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving attendance for %s: %w", studentID, err)
	}
	return rec, nil
}
