package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/aakash670/smart-attendance/internal/database"
)

const studentColumns = `id, name, roll_number, class_id, photo_url, notes, parent_id, descriptor`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (database.Student, error) {
	var s database.Student
	var vec *pgvector.Vector
	if err := row.Scan(&s.ID, &s.Name, &s.RollNumber, &s.ClassID, &s.PhotoURL, &s.Notes, &s.ParentID, &vec); err != nil {
		return s, err
	}
	if vec != nil {
		s.Descriptor = vec.Slice()
	}
	return s, nil
}

func scanStudents(rows *sql.Rows) ([]database.Student, error) {
	defer rows.Close()
	var students []database.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// GetStudent returns a student by ID.
func (s *Store) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	st, err := scanStudent(s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student %s: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &st, nil
}

// ListStudentsByClass returns the students of a class ordered by roll number.
func (s *Store) ListStudentsByClass(ctx context.Context, classID string) ([]database.Student, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+studentColumns+` FROM students WHERE class_id = $1 ORDER BY roll_number, id`, classID)
	if err != nil {
		return nil, fmt.Errorf("list students of class: %w", err)
	}
	return scanStudents(rows)
}

// GetStudentsByIDs returns the listed students, skipping unknown IDs.
func (s *Store) GetStudentsByIDs(ctx context.Context, ids []string) ([]database.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ANY($1) ORDER BY roll_number, id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get students by ids: %w", err)
	}
	return scanStudents(rows)
}

// ListStudents returns all students.
func (s *Store) ListStudents(ctx context.Context) ([]database.Student, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY roll_number, id`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return scanStudents(rows)
}

// SaveStudent inserts or updates a student. An existing descriptor is kept;
// a new student gets the descriptor it carries.
func (s *Store) SaveStudent(ctx context.Context, st *database.Student) error {
	var vec any
	if st.Enrolled() {
		vec = pgvector.NewVector(st.Descriptor)
	}
	query := `
		INSERT INTO students (id, name, roll_number, class_id, photo_url, notes, parent_id, descriptor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			roll_number = EXCLUDED.roll_number,
			class_id = EXCLUDED.class_id,
			photo_url = EXCLUDED.photo_url,
			notes = EXCLUDED.notes,
			parent_id = EXCLUDED.parent_id
	`
	if _, err := s.pool.Exec(ctx, query, st.ID, st.Name, st.RollNumber, st.ClassID, st.PhotoURL, st.Notes, st.ParentID, vec); err != nil {
		return fmt.Errorf("save student %s: %w", st.ID, err)
	}
	return nil
}

// SetDescriptor overwrites the face descriptor of a student.
func (s *Store) SetDescriptor(ctx context.Context, studentID string, descriptor []float32) error {
	result, err := s.pool.Exec(ctx, `UPDATE students SET descriptor = $2 WHERE id = $1`, studentID, pgvector.NewVector(descriptor))
	if err != nil {
		return fmt.Errorf("set descriptor: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set descriptor: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("student %s: %w", studentID, database.ErrNotFound)
	}
	return nil
}
