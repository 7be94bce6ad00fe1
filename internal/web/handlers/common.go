// Package handlers implements the HTTP API of the attendance server.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aakash670/smart-attendance/internal/attendance"
	"github.com/aakash670/smart-attendance/internal/camera"
	"github.com/aakash670/smart-attendance/internal/constants"
	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/facematch"
	"github.com/aakash670/smart-attendance/internal/session"
	"github.com/aakash670/smart-attendance/internal/vision"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
// On failure it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, constants.MaxJSONBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errInvalidRequestBody
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrClassBusy),
		errors.Is(err, session.ErrScanInProgress),
		errors.Is(err, session.ErrNothingPending),
		errors.Is(err, session.ErrStopped),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, camera.ErrNotStreaming):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidMode),
		errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, attendance.ErrInvalidRange),
		errors.Is(err, attendance.ErrInvalidAudience),
		errors.Is(err, facematch.ErrEmptyDescriptor),
		errors.Is(err, facematch.ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, vision.ErrNoFaceDetected), errors.Is(err, session.ErrNoMatchableStudents):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vision.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, camera.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, camera.ErrNoDevice),
		errors.Is(err, session.ErrModelLoad),
		errors.Is(err, vision.ErrModelsUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondErr sends err with the status it maps to. Internal errors are not
// exposed to the client.
func respondErr(w http.ResponseWriter, err error, internalMessage string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		respondError(w, status, internalMessage)
		return
	}
	respondError(w, status, err.Error())
}

// errUnsupportedImage is the message for uploads that are not a decodable image.
const errUnsupportedImage = "image must be JPEG, PNG, BMP or WebP"

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
