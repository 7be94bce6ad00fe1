package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aakash670/smart-attendance/internal/database"
)

// ErrInvalidAudience is returned when a broadcast targets an unknown role.
var ErrInvalidAudience = errors.New("invalid audience")

// NotifyStore is the persistence needed by Notifier.
type NotifyStore interface {
	database.StudentReader
	database.ClassReader
	database.UserReader
	database.AttendanceReader
	database.NotificationWriter
	database.AnnouncementWriter
}

// Notifier sends absence notifications and broadcast announcements.
type Notifier struct {
	store NotifyStore
	now   func() time.Time
}

// NewNotifier creates a notifier. now defaults to time.Now.
func NewNotifier(store NotifyStore, now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{store: store, now: now}
}

// AbsenceMessage is the text sent to a parent of an absent student.
func AbsenceMessage(studentName, className string) string {
	return fmt.Sprintf("%s was marked absent from %s today. Please contact the school.", studentName, className)
}

// SendAbsenceNotifications notifies the parents of every student of the class
// without a record today and returns the number of absent students.
func (n *Notifier) SendAbsenceNotifications(ctx context.Context, classID string) (int, error) {
	class, err := n.store.GetClass(ctx, classID)
	if err != nil {
		return 0, err
	}
	students, err := n.store.ListStudentsByClass(ctx, classID)
	if err != nil {
		return 0, fmt.Errorf("listing students: %w", err)
	}

	now := n.now()
	records, err := n.store.GetForClassByDate(ctx, classID, database.Day(now))
	if err != nil {
		return 0, fmt.Errorf("loading today's attendance: %w", err)
	}
	present := make(map[string]bool, len(records))
	for _, rec := range records {
		present[rec.StudentID] = true
	}

	absent := 0
	var notifications []database.Notification
	for _, st := range students {
		if present[st.ID] {
			continue
		}
		absent++
		if st.ParentID == "" {
			continue
		}
		if _, err := n.store.GetUser(ctx, st.ParentID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue
			}
			return 0, fmt.Errorf("looking up parent of %s: %w", st.ID, err)
		}
		notifications = append(notifications, database.Notification{
			ID:        uuid.NewString(),
			UserID:    st.ParentID,
			Message:   AbsenceMessage(st.Name, class.Name),
			Type:      database.NotificationAbsence,
			Timestamp: now,
		})
	}

	if len(notifications) > 0 {
		if err := n.store.AddNotifications(ctx, notifications); err != nil {
			return 0, fmt.Errorf("saving notifications: %w", err)
		}
	}
	log.Printf("Absence notifications for class %s: %d absent, %d parents notified", classID, absent, len(notifications))
	return absent, nil
}

// ValidAudience reports whether audience is "All" or a user role.
func ValidAudience(audience string) bool {
	if audience == database.AudienceAll {
		return true
	}
	switch database.Role(audience) {
	case database.RoleAdmin, database.RoleTeacher, database.RoleStudent, database.RoleParent:
		return true
	}
	return false
}

// Broadcast stores an announcement and sends it as a general notification to
// every user of the audience role, or to every non-admin user for "All".
func (n *Notifier) Broadcast(ctx context.Context, message, audience, sentBy string) (*database.Announcement, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("message is required")
	}
	if !ValidAudience(audience) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAudience, audience)
	}

	users, err := n.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	now := n.now()
	announcement := &database.Announcement{
		ID:        uuid.NewString(),
		Message:   message,
		Audience:  audience,
		Timestamp: now,
		SentBy:    sentBy,
	}
	if err := n.store.AddAnnouncement(ctx, announcement); err != nil {
		return nil, fmt.Errorf("saving announcement: %w", err)
	}

	var notifications []database.Notification
	for _, u := range users {
		if audience == database.AudienceAll {
			if u.Role == database.RoleAdmin {
				continue
			}
		} else if string(u.Role) != audience {
			continue
		}
		notifications = append(notifications, database.Notification{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			Message:   message,
			Type:      database.NotificationGeneral,
			Timestamp: now,
		})
	}
	if len(notifications) > 0 {
		if err := n.store.AddNotifications(ctx, notifications); err != nil {
			return nil, fmt.Errorf("saving notifications: %w", err)
		}
	}
	return announcement, nil
}
