// Package memory provides a mutex-guarded in-memory implementation of database.Store.
// It backs the demo server, the kiosk command and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/database"
)

func init() {
	database.RegisterBackend("memory", func(ctx context.Context, cfg *config.Config) (database.Store, error) {
		return NewDemo(time.Now())
	})
}

// Store is an in-memory database.Store.
type Store struct {
	mu            sync.RWMutex
	users         map[string]database.User
	classes       map[string]database.Class
	students      map[string]database.Student
	attendance    []database.AttendanceRecord
	notifications []database.Notification
	announcements []database.Announcement
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:    make(map[string]database.User),
		classes:  make(map[string]database.Class),
		students: make(map[string]database.Student),
	}
}

// NewDemo creates a store loaded with the embedded demo school.
func NewDemo(now time.Time) (*Store, error) {
	seed, err := DemoSeed()
	if err != nil {
		return nil, err
	}
	s := New()
	s.Load(seed, now)
	return s, nil
}

func (m *Store) Close() error { return nil }

func cloneStudent(s database.Student) database.Student {
	s.Descriptor = slices.Clone(s.Descriptor)
	return s
}

func sortStudents(students []database.Student) {
	slices.SortFunc(students, func(a, b database.Student) int {
		return cmp.Or(cmp.Compare(a.RollNumber, b.RollNumber), cmp.Compare(a.ID, b.ID))
	})
}

// GetStudent returns a student by ID
func (m *Store) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", id, database.ErrNotFound)
	}
	out := cloneStudent(s)
	return &out, nil
}

// ListStudentsByClass returns the students of a class
func (m *Store) ListStudentsByClass(ctx context.Context, classID string) ([]database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Student
	for _, s := range m.students {
		if s.ClassID == classID {
			out = append(out, cloneStudent(s))
		}
	}
	sortStudents(out)
	return out, nil
}

// GetStudentsByIDs returns the listed students
func (m *Store) GetStudentsByIDs(ctx context.Context, ids []string) ([]database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			out = append(out, cloneStudent(s))
		}
	}
	sortStudents(out)
	return out, nil
}

// ListStudents returns all students
func (m *Store) ListStudents(ctx context.Context) ([]database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, cloneStudent(s))
	}
	sortStudents(out)
	return out, nil
}

// SaveStudent inserts or updates a student, keeping any stored descriptor
func (m *Store) SaveStudent(ctx context.Context, s *database.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := cloneStudent(*s)
	if existing, ok := m.students[s.ID]; ok {
		st.Descriptor = existing.Descriptor
	}
	m.students[s.ID] = st
	return nil
}

// SetDescriptor overwrites the descriptor of a student
func (m *Store) SetDescriptor(ctx context.Context, studentID string, descriptor []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[studentID]
	if !ok {
		return fmt.Errorf("student %s: %w", studentID, database.ErrNotFound)
	}
	s.Descriptor = slices.Clone(descriptor)
	m.students[studentID] = s
	return nil
}

func (m *Store) withTeacherName(c database.Class) database.Class {
	c.TeacherName = "Unassigned"
	if t, ok := m.users[c.TeacherID]; ok {
		c.TeacherName = t.Name
	}
	return c
}

// GetClass returns a class by ID
func (m *Store) GetClass(ctx context.Context, id string) (*database.Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[id]
	if !ok {
		return nil, fmt.Errorf("class %s: %w", id, database.ErrNotFound)
	}
	out := m.withTeacherName(c)
	return &out, nil
}

// ListClasses returns all classes
func (m *Store) ListClasses(ctx context.Context) ([]database.Class, error) {
	return m.listClasses(func(database.Class) bool { return true }), nil
}

// ListClassesByTeacher returns the classes taught by a teacher
func (m *Store) ListClassesByTeacher(ctx context.Context, teacherID string) ([]database.Class, error) {
	return m.listClasses(func(c database.Class) bool { return c.TeacherID == teacherID }), nil
}

func (m *Store) listClasses(keep func(database.Class) bool) []database.Class {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Class
	for _, c := range m.classes {
		if keep(c) {
			out = append(out, m.withTeacherName(c))
		}
	}
	slices.SortFunc(out, func(a, b database.Class) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// SaveClass inserts or updates a class
func (m *Store) SaveClass(ctx context.Context, c *database.Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cls := *c
	cls.TeacherName = ""
	m.classes[c.ID] = cls
	return nil
}

// GetUser returns a user by ID
func (m *Store) GetUser(ctx context.Context, id string) (*database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, database.ErrNotFound)
	}
	return &u, nil
}

// ListUsers returns all users
func (m *Store) ListUsers(ctx context.Context) ([]database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b database.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// SaveUser inserts or updates a user
func (m *Store) SaveUser(ctx context.Context, u *database.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *Store) filterAttendance(keep func(database.AttendanceRecord) bool) []database.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.AttendanceRecord
	for _, rec := range m.attendance {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b database.AttendanceRecord) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.StudentID, b.StudentID))
	})
	return out
}

// GetForClassByDate returns the records of a class for one day
func (m *Store) GetForClassByDate(ctx context.Context, classID, date string) ([]database.AttendanceRecord, error) {
	return m.filterAttendance(func(r database.AttendanceRecord) bool {
		return r.ClassID == classID && r.Date == date
	}), nil
}

// GetForClassByDateRange returns the records of a class in [from, to]
func (m *Store) GetForClassByDateRange(ctx context.Context, classID, from, to string) ([]database.AttendanceRecord, error) {
	return m.filterAttendance(func(r database.AttendanceRecord) bool {
		return r.ClassID == classID && r.Date >= from && r.Date <= to
	}), nil
}

// GetForStudentByDateRange returns the records of a student in [from, to]
func (m *Store) GetForStudentByDateRange(ctx context.Context, studentID, from, to string) ([]database.AttendanceRecord, error) {
	return m.filterAttendance(func(r database.AttendanceRecord) bool {
		return r.StudentID == studentID && r.Date >= from && r.Date <= to
	}), nil
}

// ReplaceForDay drops any record for the same student and day, then appends rec
func (m *Store) ReplaceForDay(ctx context.Context, rec *database.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance = slices.DeleteFunc(m.attendance, func(r database.AttendanceRecord) bool {
		return r.StudentID == rec.StudentID && r.Date == rec.Date
	})
	m.attendance = append(m.attendance, *rec)
	return nil
}

// ListNotificationsForUser returns the notifications of a user, newest first
func (m *Store) ListNotificationsForUser(ctx context.Context, userID string) ([]database.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b database.Notification) int { return b.Timestamp.Compare(a.Timestamp) })
	return out, nil
}

// AddNotifications appends notifications
func (m *Store) AddNotifications(ctx context.Context, notifications []database.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, notifications...)
	return nil
}

// MarkNotificationRead flags a notification as read
func (m *Store) MarkNotificationRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, database.ErrNotFound)
}

// ListAnnouncements returns all announcements, newest first
func (m *Store) ListAnnouncements(ctx context.Context) ([]database.Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.announcements)
	slices.SortStableFunc(out, func(a, b database.Announcement) int { return b.Timestamp.Compare(a.Timestamp) })
	return out, nil
}

// AddAnnouncement stores an announcement
func (m *Store) AddAnnouncement(ctx context.Context, a *database.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcements = append(m.announcements, *a)
	return nil
}
