package database

import (
	"context"
)

// StudentReader provides read-only access to students
type StudentReader interface {
	// GetStudent returns ErrNotFound when no student has the given ID
	GetStudent(ctx context.Context, id string) (*Student, error)
	// ListStudentsByClass returns every student of a class ordered by roll number
	ListStudentsByClass(ctx context.Context, classID string) ([]Student, error)
	// GetStudentsByIDs returns the students whose IDs are listed; unknown IDs are skipped
	GetStudentsByIDs(ctx context.Context, ids []string) ([]Student, error)
	// ListStudents returns all students
	ListStudents(ctx context.Context) ([]Student, error)
}

// StudentWriter provides write access to students
type StudentWriter interface {
	StudentReader

	// SaveStudent inserts or updates a student. The descriptor is left untouched
	// on update; use SetDescriptor to change it.
	SaveStudent(ctx context.Context, s *Student) error
	// SetDescriptor overwrites the face descriptor of a student.
	// Returns ErrNotFound for unknown students.
	SetDescriptor(ctx context.Context, studentID string, descriptor []float32) error
}

// ClassReader provides read-only access to classes
type ClassReader interface {
	GetClass(ctx context.Context, id string) (*Class, error)
	// ListClasses returns all classes with TeacherName resolved
	ListClasses(ctx context.Context) ([]Class, error)
	ListClassesByTeacher(ctx context.Context, teacherID string) ([]Class, error)
}

// ClassWriter provides write access to classes
type ClassWriter interface {
	ClassReader

	SaveClass(ctx context.Context, c *Class) error
}

// UserReader provides read-only access to users
type UserReader interface {
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// UserWriter provides write access to users
type UserWriter interface {
	UserReader

	SaveUser(ctx context.Context, u *User) error
}

// AttendanceReader provides read-only access to attendance records
type AttendanceReader interface {
	// GetForClassByDate returns the records of a class for one day
	GetForClassByDate(ctx context.Context, classID, date string) ([]AttendanceRecord, error)
	// GetForClassByDateRange returns the records of a class between from and to inclusive
	GetForClassByDateRange(ctx context.Context, classID, from, to string) ([]AttendanceRecord, error)
	// GetForStudentByDateRange returns the records of a student between from and to inclusive
	GetForStudentByDateRange(ctx context.Context, studentID, from, to string) ([]AttendanceRecord, error)
}

// AttendanceWriter provides write access to attendance records
type AttendanceWriter interface {
	AttendanceReader

	// ReplaceForDay removes any record for (rec.StudentID, rec.Date) and inserts rec.
	// After it returns there is exactly one record for that student and day.
	ReplaceForDay(ctx context.Context, rec *AttendanceRecord) error
}

// NotificationReader provides read-only access to notifications
type NotificationReader interface {
	// ListNotificationsForUser returns the notifications of a user, newest first
	ListNotificationsForUser(ctx context.Context, userID string) ([]Notification, error)
}

// NotificationWriter provides write access to notifications
type NotificationWriter interface {
	NotificationReader

	AddNotifications(ctx context.Context, notifications []Notification) error
	MarkNotificationRead(ctx context.Context, id string) error
}

// AnnouncementReader provides read-only access to announcements
type AnnouncementReader interface {
	// ListAnnouncements returns all announcements, newest first
	ListAnnouncements(ctx context.Context) ([]Announcement, error)
}

// AnnouncementWriter provides write access to announcements
type AnnouncementWriter interface {
	AnnouncementReader

	AddAnnouncement(ctx context.Context, a *Announcement) error
}

// Store bundles every repository of one backend.
type Store interface {
	StudentWriter
	ClassWriter
	UserWriter
	AttendanceWriter
	NotificationWriter
	AnnouncementWriter

	Close() error
}
