package postgres

import (
	"context"
	"fmt"

	"github.com/aakash670/smart-attendance/internal/database"
)

// ListNotificationsForUser returns the notifications of a user, newest first.
func (s *Store) ListNotificationsForUser(ctx context.Context, userID string) ([]database.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, message, type, created_at, is_read
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []database.Notification
	for rows.Next() {
		var n database.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.Timestamp, &n.IsRead); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// AddNotifications inserts notifications in one transaction.
func (s *Store) AddNotifications(ctx context.Context, notifications []database.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notifications (id, user_id, message, type, created_at, is_read)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range notifications {
		n := &notifications[i]
		if _, err := stmt.ExecContext(ctx, n.ID, n.UserID, n.Message, string(n.Type), n.Timestamp, n.IsRead); err != nil {
			return fmt.Errorf("insert notification %s: %w", n.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// MarkNotificationRead flags a notification as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %s: %w", id, database.ErrNotFound)
	}
	return nil
}

// ListAnnouncements returns all announcements, newest first.
func (s *Store) ListAnnouncements(ctx context.Context) ([]database.Announcement, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, message, audience, sent_by, created_at FROM announcements ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var out []database.Announcement
	for rows.Next() {
		var a database.Announcement
		if err := rows.Scan(&a.ID, &a.Message, &a.Audience, &a.SentBy, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcements: %w", err)
	}
	return out, nil
}

// AddAnnouncement stores an announcement.
func (s *Store) AddAnnouncement(ctx context.Context, a *database.Announcement) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO announcements (id, message, audience, sent_by, created_at) VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Message, a.Audience, a.SentBy, a.Timestamp); err != nil {
		return fmt.Errorf("save announcement: %w", err)
	}
	return nil
}
