package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aakash670/smart-attendance/internal/attendance"
	"github.com/aakash670/smart-attendance/internal/camera"
	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/facematch"
	"github.com/aakash670/smart-attendance/internal/session"
	"github.com/aakash670/smart-attendance/internal/vision"
)

func TestRespondJSON(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusCreated, map[string]int{"absent": 2})

	assertStatusCode(t, recorder, http.StatusCreated)
	assertContentType(t, recorder, "application/json")
	var result map[string]int
	parseJSONResponse(t, recorder, &result)
	if result["absent"] != 2 {
		t.Errorf("expected absent 2, got %d", result["absent"])
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "something went wrong")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "something went wrong")
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("class01\r\nFAKE LOG LINE"); got != "class01FAKE LOG LINE" {
		t.Errorf("unexpected sanitized value %q", got)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{database.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("storing descriptor for s1: %w", database.ErrNotFound), http.StatusNotFound},
		{session.ErrNotFound, http.StatusNotFound},
		{session.ErrClassBusy, http.StatusConflict},
		{session.ErrScanInProgress, http.StatusConflict},
		{session.ErrNothingPending, http.StatusConflict},
		{session.ErrStopped, http.StatusConflict},
		{session.ErrInvalidTransition, http.StatusConflict},
		{camera.ErrNotStreaming, http.StatusConflict},
		{session.ErrInvalidMode, http.StatusBadRequest},
		{attendance.ErrInvalidStatus, http.StatusBadRequest},
		{attendance.ErrInvalidRange, http.StatusBadRequest},
		{attendance.ErrInvalidAudience, http.StatusBadRequest},
		{facematch.ErrEmptyDescriptor, http.StatusBadRequest},
		{facematch.ErrDimensionMismatch, http.StatusBadRequest},
		{vision.ErrNoFaceDetected, http.StatusUnprocessableEntity},
		{fmt.Errorf("detecting faces: %w", vision.ErrUnsupportedImage), http.StatusUnsupportedMediaType},
		{session.ErrNoMatchableStudents, http.StatusUnprocessableEntity},
		{camera.ErrPermissionDenied, http.StatusForbidden},
		{camera.ErrNoDevice, http.StatusServiceUnavailable},
		{session.ErrModelLoad, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			if got := statusForError(tc.err); got != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestRespondErr_HidesInternalErrors(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondErr(recorder, errors.New("pq: password authentication failed"), "failed to list classes")

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to list classes")
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		ok        bool
		errSubstr string
	}{
		{"valid", `{"student_id":"s1","class_id":"class01","status":"Late"}`, true, ""},
		{"malformed", `{"student_id":`, false, errInvalidRequestBody},
		{"empty body", ``, false, "student_id is required"},
		{"bad status", `{"student_id":"s1","class_id":"class01","status":"Sick"}`, false, "status must satisfy oneof"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", strings.NewReader(tc.body))
			recorder := httptest.NewRecorder()

			var dst MarkRequest
			ok := decodeJSON(recorder, req, &dst)

			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (body %s)", tc.ok, ok, recorder.Body.String())
			}
			if !tc.ok {
				assertStatusCode(t, recorder, http.StatusBadRequest)
				var result map[string]string
				parseJSONResponse(t, recorder, &result)
				if !strings.Contains(result["error"], tc.errSubstr) {
					t.Errorf("expected error containing %q, got %q", tc.errSubstr, result["error"])
				}
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	for _, method := range []string{"GET", "HEAD"} {
		t.Run(method, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			HealthCheck(recorder, httptest.NewRequest(method, "/health", nil))

			assertStatusCode(t, recorder, http.StatusOK)
		})
	}
}
