package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aakash670/smart-attendance/internal/constants"
	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/roster"
	"github.com/aakash670/smart-attendance/internal/session"
	"github.com/aakash670/smart-attendance/internal/vision"
)

// framePusher is a camera fed by the kiosk over HTTP.
type framePusher interface {
	Push(frame []byte) error
	SetPermitted(permitted bool)
}

// SessionsHandler handles scanning sessions
type SessionsHandler struct {
	classes  database.ClassReader
	sessions *session.Manager
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(classes database.ClassReader, sessions *session.Manager) *SessionsHandler {
	return &SessionsHandler{classes: classes, sessions: sessions}
}

// CreateSessionRequest starts a scanning session for a class.
type CreateSessionRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Mode    string `json:"mode" validate:"required,oneof=kiosk live"`
}

// CameraRequest starts the camera. Permitted reports whether the kiosk
// browser was granted camera access; it only applies to pushed frames.
type CameraRequest struct {
	Permitted *bool `json:"permitted,omitempty"`
}

// lookup finds the session of the {id} URL parameter or writes a 404.
func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request) *session.Session {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return s
}

// List returns a snapshot of every known session.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()
	response := make([]session.Snapshot, len(sessions))
	for i, s := range sessions {
		response[i] = s.Snapshot()
	}
	respondJSON(w, http.StatusOK, response)
}

// Create starts a session: models are loaded and the roster is built.
// A session that fails to start is still returned so its status can be shown.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.classes.GetClass(r.Context(), req.ClassID); err != nil {
		respondErr(w, err, "failed to get class")
		return
	}

	s, err := h.sessions.StartSession(r.Context(), req.ClassID, roster.Mode(req.Mode))
	if s == nil {
		respondErr(w, err, "failed to start session")
		return
	}
	if err != nil {
		log.Printf("Session %s for class %s failed to start: %v", s.ID(), sanitizeForLog(req.ClassID), err)
	}
	respondJSON(w, http.StatusCreated, s.Snapshot())
}

// Get returns the current snapshot of a session.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, s.Snapshot())
}

// StartCamera opens the session camera. It may be retried after a camera error.
func (h *SessionsHandler) StartCamera(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}

	var req CameraRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if pusher, ok := s.Camera().(framePusher); ok && req.Permitted != nil {
		pusher.SetPermitted(*req.Permitted)
	}

	if err := s.StartCamera(r.Context()); err != nil {
		respondErr(w, err, "failed to start camera")
		return
	}
	respondJSON(w, http.StatusOK, s.Snapshot())
}

// PushFrame hands a frame captured by the kiosk to the session camera.
func (h *SessionsHandler) PushFrame(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	pusher, ok := s.Camera().(framePusher)
	if !ok {
		respondError(w, http.StatusConflict, "session camera does not accept frames")
		return
	}

	frame, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxUploadSize))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "frame too large")
		return
	}
	if len(frame) == 0 {
		respondError(w, http.StatusBadRequest, "frame is empty")
		return
	}
	if _, err := vision.CheckImage(frame); err != nil {
		respondError(w, http.StatusUnsupportedMediaType, errUnsupportedImage)
		return
	}
	if err := pusher.Push(frame); err != nil {
		respondErr(w, err, "failed to accept frame")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Scan processes the next camera frame and reconciles recognized students.
func (h *SessionsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}

	report, err := s.Scan(r.Context())
	if err != nil {
		if statusForError(err) == http.StatusInternalServerError {
			// Frame or detector failure; the session stays usable.
			respondError(w, http.StatusBadGateway, session.StatusFrameFailed)
			return
		}
		respondErr(w, err, session.StatusFrameFailed)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Stop releases the camera and ends the session.
func (h *SessionsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	s := h.lookup(w, r)
	if s == nil {
		return
	}
	s.Stop()
	respondJSON(w, http.StatusOK, s.Snapshot())
}

// Events streams session events as server-sent events.
func (h *SessionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSessionEvents(w, r, h.sessions.Get)
}
