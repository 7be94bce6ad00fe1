// Package mariadb reads class rosters from a school information system (SIS)
// running on MariaDB/MySQL.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/aakash670/smart-attendance/internal/database"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// ListClasses returns the classes of the SIS.
func (p *Pool) ListClasses(ctx context.Context) ([]database.Class, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(teacher_id, '')
		FROM classes
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	var classes []database.Class
	for rows.Next() {
		var c database.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.TeacherID); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}
	return classes, nil
}

// ListStudents returns the students of the SIS. Descriptors are never stored there.
func (p *Pool) ListStudents(ctx context.Context) ([]database.Student, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(roll_number, ''), class_id, COALESCE(parent_id, ''), COALESCE(photo_url, '')
		FROM students
		WHERE active = 1
		ORDER BY class_id, roll_number, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber, &s.ClassID, &s.ParentID, &s.PhotoURL); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}
