package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aakash670/smart-attendance/internal/attendance"
	"github.com/aakash670/smart-attendance/internal/database"
)

// AttendanceHandler handles attendance reports, manual marking and absence notifications
type AttendanceHandler struct {
	store    database.Store
	reports  *attendance.Reports
	writer   *attendance.Writer
	notifier *attendance.Notifier
	now      func() time.Time
}

// NewAttendanceHandler creates a new attendance handler. now defaults to time.Now.
func NewAttendanceHandler(store database.Store, now func() time.Time) *AttendanceHandler {
	if now == nil {
		now = time.Now
	}
	return &AttendanceHandler{
		store:    store,
		reports:  attendance.NewReports(store, store, now),
		writer:   attendance.NewWriter(store, now),
		notifier: attendance.NewNotifier(store, now),
		now:      now,
	}
}

// MarkRequest is a manual attendance entry by a teacher.
type MarkRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=Present Absent Late"`
}

// AbsenceResponse reports the result of sending absence notifications.
type AbsenceResponse struct {
	ClassID string `json:"class_id"`
	Absent  int    `json:"absent"`
}

func recordsOrEmpty(records []database.AttendanceRecord) []database.AttendanceRecord {
	if records == nil {
		return []database.AttendanceRecord{}
	}
	return records
}

// ClassAttendance returns the records of a class for ?date= (default today)
// or for the inclusive range ?from=&to=.
func (h *AttendanceHandler) ClassAttendance(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	q := r.URL.Query()

	var (
		records []database.AttendanceRecord
		err     error
	)
	switch {
	case q.Get("from") != "" || q.Get("to") != "":
		records, err = h.reports.ClassByDateRange(r.Context(), classID, q.Get("from"), q.Get("to"))
	default:
		records, err = h.reports.ClassByDate(r.Context(), classID, q.Get("date"))
	}
	if err != nil {
		respondErr(w, err, "failed to get attendance")
		return
	}
	respondJSON(w, http.StatusOK, recordsOrEmpty(records))
}

// Summary returns the per-status counts of a class for ?date= (default today).
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	if _, err := h.store.GetClass(r.Context(), classID); err != nil {
		respondErr(w, err, "failed to get class")
		return
	}

	summary, err := h.reports.DailySummary(r.Context(), classID, r.URL.Query().Get("date"))
	if err != nil {
		respondErr(w, err, "failed to build summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Mark records a status for a student today.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req MarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	student, err := h.store.GetStudent(r.Context(), req.StudentID)
	if err != nil {
		respondErr(w, err, "failed to get student")
		return
	}
	if student.ClassID != req.ClassID {
		respondError(w, http.StatusBadRequest, "student is not in this class")
		return
	}

	rec, err := h.writer.Mark(r.Context(), req.StudentID, req.ClassID, database.AttendanceStatus(req.Status))
	if err != nil {
		log.Printf("Marking %s: %v", sanitizeForLog(req.StudentID), err)
		respondErr(w, err, "failed to save attendance")
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// StudentAttendance returns the records of a student for ?month=&year=
// (default the current month).
func (h *AttendanceHandler) StudentAttendance(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	if _, err := h.store.GetStudent(r.Context(), studentID); err != nil {
		respondErr(w, err, "failed to get student")
		return
	}

	now := h.now()
	month, year := int(now.Month()), now.Year()
	if s := r.URL.Query().Get("month"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = n
	}
	if s := r.URL.Query().Get("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}

	records, err := h.reports.StudentMonth(r.Context(), studentID, time.Month(month), year)
	if err != nil {
		respondErr(w, err, "failed to get attendance")
		return
	}
	respondJSON(w, http.StatusOK, recordsOrEmpty(records))
}

// AbsenceNotifications notifies the parents of every student of the class
// without a record today.
func (h *AttendanceHandler) AbsenceNotifications(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	absent, err := h.notifier.SendAbsenceNotifications(r.Context(), classID)
	if err != nil {
		log.Printf("Absence notifications for %s: %v", sanitizeForLog(classID), err)
		respondErr(w, err, "failed to send notifications")
		return
	}
	respondJSON(w, http.StatusOK, AbsenceResponse{ClassID: classID, Absent: absent})
}
