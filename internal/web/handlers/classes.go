package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aakash670/smart-attendance/internal/database"
)

// ClassesHandler handles class and roster endpoints
type ClassesHandler struct {
	store database.Store
}

// NewClassesHandler creates a new classes handler
func NewClassesHandler(store database.Store) *ClassesHandler {
	return &ClassesHandler{store: store}
}

// StudentResponse is a student without its descriptor.
type StudentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	ClassID    string `json:"class_id"`
	PhotoURL   string `json:"photo_url,omitempty"`
	Notes      string `json:"notes,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
	Enrolled   bool   `json:"enrolled"`
}

func studentToResponse(s *database.Student) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		Name:       s.Name,
		RollNumber: s.RollNumber,
		ClassID:    s.ClassID,
		PhotoURL:   s.PhotoURL,
		Notes:      s.Notes,
		ParentID:   s.ParentID,
		Enrolled:   s.Enrolled(),
	}
}

// List returns all classes, or the classes of one teacher with ?teacher_id=.
func (h *ClassesHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		classes []database.Class
		err     error
	)
	if teacherID := r.URL.Query().Get("teacher_id"); teacherID != "" {
		classes, err = h.store.ListClassesByTeacher(r.Context(), teacherID)
	} else {
		classes, err = h.store.ListClasses(r.Context())
	}
	if err != nil {
		log.Printf("Listing classes: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list classes")
		return
	}
	if classes == nil {
		classes = []database.Class{}
	}
	respondJSON(w, http.StatusOK, classes)
}

// Students returns the roster of a class.
func (h *ClassesHandler) Students(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	if _, err := h.store.GetClass(r.Context(), classID); err != nil {
		respondErr(w, err, "failed to get class")
		return
	}

	students, err := h.store.ListStudentsByClass(r.Context(), classID)
	if err != nil {
		log.Printf("Listing students of class %s: %v", sanitizeForLog(classID), err)
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	response := make([]StudentResponse, len(students))
	for i := range students {
		response[i] = studentToResponse(&students[i])
	}
	respondJSON(w, http.StatusOK, response)
}
