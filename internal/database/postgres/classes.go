package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/aakash670/smart-attendance/internal/database"
)

const classQuery = `
	SELECT c.id, c.name, c.teacher_id, COALESCE(u.name, 'Unassigned')
	FROM classes c
	LEFT JOIN users u ON u.id = c.teacher_id
`

func scanClasses(rows *sql.Rows) ([]database.Class, error) {
	defer rows.Close()
	var classes []database.Class
	for rows.Next() {
		var c database.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.TeacherID, &c.TeacherName); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}
	return classes, nil
}

// GetClass returns a class with its teacher name resolved.
func (s *Store) GetClass(ctx context.Context, id string) (*database.Class, error) {
	var c database.Class
	err := s.pool.QueryRow(ctx, classQuery+` WHERE c.id = $1`, id).Scan(&c.ID, &c.Name, &c.TeacherID, &c.TeacherName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("class %s: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	return &c, nil
}

// ListClasses returns all classes.
func (s *Store) ListClasses(ctx context.Context) ([]database.Class, error) {
	rows, err := s.pool.Query(ctx, classQuery+` ORDER BY c.name, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return scanClasses(rows)
}

// ListClassesByTeacher returns the classes taught by a teacher.
func (s *Store) ListClassesByTeacher(ctx context.Context, teacherID string) ([]database.Class, error) {
	rows, err := s.pool.Query(ctx, classQuery+` WHERE c.teacher_id = $1 ORDER BY c.name, c.id`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list classes by teacher: %w", err)
	}
	return scanClasses(rows)
}

// SaveClass inserts or updates a class.
func (s *Store) SaveClass(ctx context.Context, c *database.Class) error {
	query := `
		INSERT INTO classes (id, name, teacher_id) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, teacher_id = EXCLUDED.teacher_id
	`
	if _, err := s.pool.Exec(ctx, query, c.ID, c.Name, c.TeacherID); err != nil {
		return fmt.Errorf("save class %s: %w", c.ID, err)
	}
	return nil
}

const userColumns = `id, name, email, role, photo_url, linked_student_ids, assigned_class_ids`

func scanUser(row rowScanner) (database.User, error) {
	var u database.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PhotoURL, pq.Array(&u.LinkedStudentIDs), pq.Array(&u.AssignedClassIDs))
	return u, err
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*database.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers(ctx context.Context) ([]database.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []database.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// SaveUser inserts or updates a user.
func (s *Store) SaveUser(ctx context.Context, u *database.User) error {
	query := `
		INSERT INTO users (id, name, email, role, photo_url, linked_student_ids, assigned_class_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			photo_url = EXCLUDED.photo_url,
			linked_student_ids = EXCLUDED.linked_student_ids,
			assigned_class_ids = EXCLUDED.assigned_class_ids
	`
	linked := u.LinkedStudentIDs
	if linked == nil {
		linked = []string{}
	}
	assigned := u.AssignedClassIDs
	if assigned == nil {
		assigned = []string{}
	}
	if _, err := s.pool.Exec(ctx, query, u.ID, u.Name, u.Email, string(u.Role), u.PhotoURL, pq.Array(linked), pq.Array(assigned)); err != nil {
		return fmt.Errorf("save user %s: %w", u.ID, err)
	}
	return nil
}
