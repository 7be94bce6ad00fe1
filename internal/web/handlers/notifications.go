package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aakash670/smart-attendance/internal/attendance"
	"github.com/aakash670/smart-attendance/internal/database"
)

// NotificationsHandler handles notifications and announcements
type NotificationsHandler struct {
	store    database.Store
	notifier *attendance.Notifier
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(store database.Store, now func() time.Time) *NotificationsHandler {
	return &NotificationsHandler{store: store, notifier: attendance.NewNotifier(store, now)}
}

// AnnouncementRequest is a broadcast to one role or to everyone.
type AnnouncementRequest struct {
	Message  string `json:"message" validate:"required"`
	Audience string `json:"audience" validate:"required,oneof=All admin teacher student parent"`
	SentBy   string `json:"sent_by"`
}

// ForUser returns the notifications of a user, newest first.
func (h *NotificationsHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	notifications, err := h.store.ListNotificationsForUser(r.Context(), userID)
	if err != nil {
		log.Printf("Listing notifications of %s: %v", sanitizeForLog(userID), err)
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []database.Notification{}
	}
	respondJSON(w, http.StatusOK, notifications)
}

// MarkRead flags a notification as read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.store.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err, "failed to update notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Announcements returns every announcement, newest first.
func (h *NotificationsHandler) Announcements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.store.ListAnnouncements(r.Context())
	if err != nil {
		log.Printf("Listing announcements: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list announcements")
		return
	}
	if announcements == nil {
		announcements = []database.Announcement{}
	}
	respondJSON(w, http.StatusOK, announcements)
}

// Broadcast stores an announcement and notifies its audience.
func (h *NotificationsHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req AnnouncementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	announcement, err := h.notifier.Broadcast(r.Context(), req.Message, req.Audience, req.SentBy)
	if err != nil {
		log.Printf("Broadcast to %s: %v", sanitizeForLog(req.Audience), err)
		respondErr(w, err, "failed to send announcement")
		return
	}
	respondJSON(w, http.StatusCreated, announcement)
}
