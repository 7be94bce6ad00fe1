package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aakash670/smart-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	classesHandler := handlers.NewClassesHandler(s.deps.Store)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Store, s.deps.Now)
	studentsHandler := handlers.NewStudentsHandler(s.deps.Descriptors, s.deps.Detector)
	notificationsHandler := handlers.NewNotificationsHandler(s.deps.Store, s.deps.Now)
	sessionsHandler := handlers.NewSessionsHandler(s.deps.Store, s.deps.Sessions)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Event streams live as long as their session.
		r.Get("/sessions/{id}/events", sessionsHandler.Events)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(2 * time.Minute))

			// Classes and reports
			r.Get("/classes", classesHandler.List)
			r.Get("/classes/{id}/students", classesHandler.Students)
			r.Get("/classes/{id}/attendance", attendanceHandler.ClassAttendance)
			r.Get("/classes/{id}/attendance/summary", attendanceHandler.Summary)
			r.Post("/classes/{id}/absence-notifications", attendanceHandler.AbsenceNotifications)

			// Attendance
			r.Post("/attendance", attendanceHandler.Mark)
			r.Get("/students/{id}/attendance", attendanceHandler.StudentAttendance)

			// Enrollment
			r.Put("/students/{id}/descriptor", studentsHandler.SetDescriptor)

			// Notifications
			r.Get("/users/{id}/notifications", notificationsHandler.ForUser)
			r.Put("/notifications/{id}/read", notificationsHandler.MarkRead)
			r.Get("/announcements", notificationsHandler.Announcements)
			r.Post("/announcements", notificationsHandler.Broadcast)

			// Scanning sessions
			r.Get("/sessions", sessionsHandler.List)
			r.Post("/sessions", sessionsHandler.Create)
			r.Get("/sessions/{id}", sessionsHandler.Get)
			r.Post("/sessions/{id}/camera", sessionsHandler.StartCamera)
			r.Post("/sessions/{id}/frames", sessionsHandler.PushFrame)
			r.Post("/sessions/{id}/scan", sessionsHandler.Scan)
			r.Delete("/sessions/{id}", sessionsHandler.Stop)
		})
	})
}
