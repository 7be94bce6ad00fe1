package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/database/mock"
)

// fixedNow is the clock of handler tests: a Wednesday morning.
func fixedNow() time.Time {
	return time.Date(2026, 3, 11, 9, 30, 0, 0, time.Local)
}

// testJPEG returns a small valid JPEG image.
func testJPEG() []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil)
	return buf.Bytes()
}

// testStore creates a mock store with one class, three students (two
// enrolled) and a parent.
func testStore() *mock.MockStore {
	store := mock.NewMockStore()
	store.AddUser(database.User{ID: "teacher01", Name: "Mr. Rajesh Sharma", Role: database.RoleTeacher, AssignedClassIDs: []string{"class01"}})
	store.AddUser(database.User{ID: "parent01", Name: "Mrs. Sunita Kumar", Role: database.RoleParent, LinkedStudentIDs: []string{"s1"}})
	store.AddClass(database.Class{ID: "class01", Name: "Grade 5 - Section A", TeacherID: "teacher01"})
	store.AddClass(database.Class{ID: "class02", Name: "Grade 8 - Section B", TeacherID: "teacher02"})
	store.AddStudents(
		database.Student{ID: "s1", Name: "Rohan Kumar", RollNumber: "5A-01", ClassID: "class01", ParentID: "parent01", Descriptor: []float32{1, 0, 0, 0}},
		database.Student{ID: "s2", Name: "Priya Patel", RollNumber: "5A-02", ClassID: "class01", Descriptor: []float32{2, 0, 0, 0}},
		database.Student{ID: "s3", Name: "Aarav Singh", RollNumber: "5A-03", ClassID: "class01"},
	)
	return store
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest creates a request with a JSON body and chi URL parameters
func jsonRequest(method, path, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return requestWithChiParams(req, params)
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
