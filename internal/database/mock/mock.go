// Package mock provides a database.Store for testing with error injection and call counting.
package mock

import (
	"context"
	"sync"

	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/database/memory"
)

// MockStore is an in-memory database.Store whose calls can be made to fail.
type MockStore struct {
	*memory.Store

	mu              sync.Mutex
	replaceCalls    map[string]int // studentID -> ReplaceForDay calls
	descriptorCalls int

	// Error injection
	GetStudentError        error
	ListStudentsError      error
	SetDescriptorError     error
	GetClassError          error
	GetAttendanceError     error
	ReplaceForDayError     error
	AddNotificationsError  error
	AddAnnouncementError   error
	ListNotificationsError error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		Store:        memory.New(),
		replaceCalls: make(map[string]int),
	}
}

// AddStudents adds students, keeping their descriptors
func (m *MockStore) AddStudents(students ...database.Student) {
	ctx := context.Background()
	for i := range students {
		s := students[i]
		_ = m.Store.SaveStudent(ctx, &s)
		if len(s.Descriptor) > 0 {
			_ = m.Store.SetDescriptor(ctx, s.ID, s.Descriptor)
		}
	}
}

// AddClass adds a class
func (m *MockStore) AddClass(c database.Class) {
	_ = m.Store.SaveClass(context.Background(), &c)
}

// AddUser adds a user
func (m *MockStore) AddUser(u database.User) {
	_ = m.Store.SaveUser(context.Background(), &u)
}

// AddRecord stores an attendance record without counting it as a call
func (m *MockStore) AddRecord(rec database.AttendanceRecord) {
	_ = m.Store.ReplaceForDay(context.Background(), &rec)
}

// ReplaceCalls returns how many times ReplaceForDay was called for a student
func (m *MockStore) ReplaceCalls(studentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceCalls[studentID]
}

// TotalReplaceCalls returns the total number of ReplaceForDay calls
func (m *MockStore) TotalReplaceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.replaceCalls {
		total += n
	}
	return total
}

// DescriptorCalls returns how many times SetDescriptor was called
func (m *MockStore) DescriptorCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.descriptorCalls
}

// GetStudent returns a student by ID
func (m *MockStore) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	if m.GetStudentError != nil {
		return nil, m.GetStudentError
	}
	return m.Store.GetStudent(ctx, id)
}

// ListStudentsByClass returns the students of a class
func (m *MockStore) ListStudentsByClass(ctx context.Context, classID string) ([]database.Student, error) {
	if m.ListStudentsError != nil {
		return nil, m.ListStudentsError
	}
	return m.Store.ListStudentsByClass(ctx, classID)
}

// SetDescriptor overwrites the descriptor of a student
func (m *MockStore) SetDescriptor(ctx context.Context, studentID string, descriptor []float32) error {
	m.mu.Lock()
	m.descriptorCalls++
	m.mu.Unlock()
	if m.SetDescriptorError != nil {
		return m.SetDescriptorError
	}
	return m.Store.SetDescriptor(ctx, studentID, descriptor)
}

// GetClass returns a class by ID
func (m *MockStore) GetClass(ctx context.Context, id string) (*database.Class, error) {
	if m.GetClassError != nil {
		return nil, m.GetClassError
	}
	return m.Store.GetClass(ctx, id)
}

// GetForClassByDate returns the records of a class for one day
func (m *MockStore) GetForClassByDate(ctx context.Context, classID, date string) ([]database.AttendanceRecord, error) {
	if m.GetAttendanceError != nil {
		return nil, m.GetAttendanceError
	}
	return m.Store.GetForClassByDate(ctx, classID, date)
}

// GetForClassByDateRange returns the records of a class in a date range
func (m *MockStore) GetForClassByDateRange(ctx context.Context, classID, from, to string) ([]database.AttendanceRecord, error) {
	if m.GetAttendanceError != nil {
		return nil, m.GetAttendanceError
	}
	return m.Store.GetForClassByDateRange(ctx, classID, from, to)
}

// GetForStudentByDateRange returns the records of a student in a date range
func (m *MockStore) GetForStudentByDateRange(ctx context.Context, studentID, from, to string) ([]database.AttendanceRecord, error) {
	if m.GetAttendanceError != nil {
		return nil, m.GetAttendanceError
	}
	return m.Store.GetForStudentByDateRange(ctx, studentID, from, to)
}

// ReplaceForDay counts the call, then writes unless an error is injected
func (m *MockStore) ReplaceForDay(ctx context.Context, rec *database.AttendanceRecord) error {
	m.mu.Lock()
	m.replaceCalls[rec.StudentID]++
	m.mu.Unlock()
	if m.ReplaceForDayError != nil {
		return m.ReplaceForDayError
	}
	return m.Store.ReplaceForDay(ctx, rec)
}

// ListNotificationsForUser returns the notifications of a user
func (m *MockStore) ListNotificationsForUser(ctx context.Context, userID string) ([]database.Notification, error) {
	if m.ListNotificationsError != nil {
		return nil, m.ListNotificationsError
	}
	return m.Store.ListNotificationsForUser(ctx, userID)
}

// AddNotifications appends notifications
func (m *MockStore) AddNotifications(ctx context.Context, notifications []database.Notification) error {
	if m.AddNotificationsError != nil {
		return m.AddNotificationsError
	}
	return m.Store.AddNotifications(ctx, notifications)
}

// AddAnnouncement stores an announcement
func (m *MockStore) AddAnnouncement(ctx context.Context, a *database.Announcement) error {
	if m.AddAnnouncementError != nil {
		return m.AddAnnouncementError
	}
	return m.Store.AddAnnouncement(ctx, a)
}

var _ database.Store = (*MockStore)(nil)
