package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aakash670/smart-attendance/internal/database"
)

// ErrInvalidRange is returned for malformed or reversed date ranges.
var ErrInvalidRange = errors.New("invalid date range")

// Reports answers attendance queries.
type Reports struct {
	students database.StudentReader
	records  database.AttendanceReader
	now      func() time.Time
}

// NewReports creates a report service. now defaults to time.Now.
func NewReports(students database.StudentReader, records database.AttendanceReader, now func() time.Time) *Reports {
	if now == nil {
		now = time.Now
	}
	return &Reports{students: students, records: records, now: now}
}

// SummaryRow is the status of one student on the summarized day.
// Status is empty when the student has no record.
type SummaryRow struct {
	StudentID  string                    `json:"student_id"`
	Name       string                    `json:"name"`
	RollNumber string                    `json:"roll_number"`
	Status     database.AttendanceStatus `json:"status,omitempty"`
}

// DailySummary counts the statuses of a class on one day.
type DailySummary struct {
	ClassID  string       `json:"class_id"`
	Date     string       `json:"date"`
	Total    int          `json:"total"`
	Present  int          `json:"present"`
	Absent   int          `json:"absent"`
	Late     int          `json:"late"`
	Unmarked int          `json:"unmarked"`
	Rows     []SummaryRow `json:"rows"`
}

func checkDay(date string) error {
	if _, err := database.ParseDay(date); err != nil {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidRange, date)
	}
	return nil
}

// ClassByDate returns the records of a class on one day. An empty date means today.
func (r *Reports) ClassByDate(ctx context.Context, classID, date string) ([]database.AttendanceRecord, error) {
	if date == "" {
		date = database.Day(r.now())
	}
	if err := checkDay(date); err != nil {
		return nil, err
	}
	return r.records.GetForClassByDate(ctx, classID, date)
}

// ClassByDateRange returns the records of a class between from and to inclusive.
func (r *Reports) ClassByDateRange(ctx context.Context, classID, from, to string) ([]database.AttendanceRecord, error) {
	if err := checkDay(from); err != nil {
		return nil, err
	}
	if err := checkDay(to); err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from, to)
	}
	return r.records.GetForClassByDateRange(ctx, classID, from, to)
}

// StudentMonth returns the records of a student in one calendar month.
func (r *Reports) StudentMonth(ctx context.Context, studentID string, month time.Month, year int) ([]database.AttendanceRecord, error) {
	if month < time.January || month > time.December || year < 1 {
		return nil, fmt.Errorf("%w: month %d of %d", ErrInvalidRange, month, year)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)
	return r.records.GetForStudentByDateRange(ctx, studentID, database.Day(first), database.Day(last))
}

// DailySummary counts each status of a class on one day. An empty date means today.
func (r *Reports) DailySummary(ctx context.Context, classID, date string) (*DailySummary, error) {
	records, err := r.ClassByDate(ctx, classID, date)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = database.Day(r.now())
	}
	students, err := r.students.ListStudentsByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}

	byStudent := make(map[string]database.AttendanceStatus, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec.Status
	}

	summary := &DailySummary{ClassID: classID, Date: date, Total: len(students), Rows: make([]SummaryRow, 0, len(students))}
	for _, st := range students {
		status := byStudent[st.ID]
		switch status {
		case database.StatusPresent:
			summary.Present++
		case database.StatusAbsent:
			summary.Absent++
		case database.StatusLate:
			summary.Late++
		default:
			summary.Unmarked++
		}
		summary.Rows = append(summary.Rows, SummaryRow{
			StudentID:  st.ID,
			Name:       st.Name,
			RollNumber: st.RollNumber,
			Status:     status,
		})
	}
	return summary, nil
}
