package database

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DateLayout is the calendar-day key format used by attendance records.
const DateLayout = "2006-01-02"

// Day returns the local calendar day of t formatted as YYYY-MM-DD.
func Day(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// ParseDay parses a YYYY-MM-DD key in the local time zone.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// AttendanceStatus is the recorded status of a student for one day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusLate    AttendanceStatus = "Late"
)

// Valid reports whether s is one of the known statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

type NotificationType string

const (
	NotificationAbsence NotificationType = "absence"
	NotificationEvent   NotificationType = "event"
	NotificationGeneral NotificationType = "general"
)

// AudienceAll targets every non-admin user of a broadcast.
const AudienceAll = "All"

// Student is an enrolled pupil. A nil or empty Descriptor means the student
// has no face on file and cannot be matched.
type Student struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	RollNumber string    `json:"roll_number" yaml:"roll_number"`
	ClassID    string    `json:"class_id" yaml:"class_id"`
	PhotoURL   string    `json:"photo_url,omitempty" yaml:"photo_url"`
	Notes      string    `json:"notes,omitempty" yaml:"notes"`
	ParentID   string    `json:"parent_id,omitempty" yaml:"parent_id"`
	Descriptor []float32 `json:"descriptor,omitempty" yaml:"descriptor"`
}

// Enrolled reports whether the student has a usable face descriptor.
func (s *Student) Enrolled() bool {
	return len(s.Descriptor) > 0
}

type Class struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	TeacherID   string `json:"teacher_id" yaml:"teacher_id"`
	TeacherName string `json:"teacher_name,omitempty" yaml:"-"`
}

type User struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Email            string   `json:"email" yaml:"email"`
	Role             Role     `json:"role" yaml:"role"`
	PhotoURL         string   `json:"photo_url,omitempty" yaml:"photo_url"`
	LinkedStudentIDs []string `json:"linked_student_ids,omitempty" yaml:"linked_student_ids"`
	AssignedClassIDs []string `json:"assigned_class_ids,omitempty" yaml:"assigned_class_ids"`
}

// AttendanceRecord is the status of one student on one calendar day.
type AttendanceRecord struct {
	ID        string           `json:"id"`
	StudentID string           `json:"student_id"`
	ClassID   string           `json:"class_id"`
	Date      string           `json:"date"` // YYYY-MM-DD
	Status    AttendanceStatus `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
}

type Notification struct {
	ID        string           `json:"id" yaml:"id"`
	UserID    string           `json:"user_id" yaml:"user_id"`
	Message   string           `json:"message" yaml:"message"`
	Type      NotificationType `json:"type" yaml:"type"`
	Timestamp time.Time        `json:"timestamp" yaml:"-"`
	IsRead    bool             `json:"is_read" yaml:"is_read"`
}

type Announcement struct {
	ID        string    `json:"id" yaml:"id"`
	Message   string    `json:"message" yaml:"message"`
	Audience  string    `json:"audience" yaml:"audience"`
	Timestamp time.Time `json:"timestamp" yaml:"-"`
	SentBy    string    `json:"sent_by" yaml:"sent_by"`
}
