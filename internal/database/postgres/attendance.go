package postgres

import (
	"context"
	"fmt"

	"github.com/aakash670/smart-attendance/internal/database"
)

const attendanceColumns = `id, student_id, class_id, to_char(date, 'YYYY-MM-DD'), status, created_at`

func (s *Store) queryAttendance(ctx context.Context, query string, args ...any) ([]database.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+attendanceColumns+` FROM attendance `+query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.ClassID, &rec.Date, &rec.Status, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

// GetForClassByDate returns the records of a class for one day.
func (s *Store) GetForClassByDate(ctx context.Context, classID, date string) ([]database.AttendanceRecord, error) {
	return s.queryAttendance(ctx, `WHERE class_id = $1 AND date = $2::date ORDER BY student_id`, classID, date)
}

// GetForClassByDateRange returns the records of a class between from and to inclusive.
func (s *Store) GetForClassByDateRange(ctx context.Context, classID, from, to string) ([]database.AttendanceRecord, error) {
	return s.queryAttendance(ctx,
		`WHERE class_id = $1 AND date BETWEEN $2::date AND $3::date ORDER BY date, student_id`, classID, from, to)
}

// GetForStudentByDateRange returns the records of a student between from and to inclusive.
func (s *Store) GetForStudentByDateRange(ctx context.Context, studentID, from, to string) ([]database.AttendanceRecord, error) {
	return s.queryAttendance(ctx,
		`WHERE student_id = $1 AND date BETWEEN $2::date AND $3::date ORDER BY date`, studentID, from, to)
}

// ReplaceForDay deletes the student's record for the day and inserts rec in
// one transaction.
func (s *Store) ReplaceForDay(ctx context.Context, rec *database.AttendanceRecord) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attendance WHERE student_id = $1 AND date = $2::date`, rec.StudentID, rec.Date); err != nil {
		return fmt.Errorf("delete existing attendance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attendance (id, student_id, class_id, date, status, created_at)
		VALUES ($1, $2, $3, $4::date, $5, $6)
	`, rec.ID, rec.StudentID, rec.ClassID, rec.Date, string(rec.Status), rec.Timestamp); err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
