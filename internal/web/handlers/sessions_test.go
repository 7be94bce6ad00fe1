package handlers

import (
	"bufio"
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aakash670/smart-attendance/internal/attendance"
	"github.com/aakash670/smart-attendance/internal/camera"
	"github.com/aakash670/smart-attendance/internal/database/mock"
	"github.com/aakash670/smart-attendance/internal/facematch"
	fmmock "github.com/aakash670/smart-attendance/internal/facematch/mock"
	"github.com/aakash670/smart-attendance/internal/roster"
	"github.com/aakash670/smart-attendance/internal/session"
	"github.com/aakash670/smart-attendance/internal/vision"
	visionmock "github.com/aakash670/smart-attendance/internal/vision/mock"
)

type sessionsFixture struct {
	store    *mock.MockStore
	detector *visionmock.Detector
	manager  *session.Manager
	handler  *SessionsHandler
}

func newSessionsFixture() *sessionsFixture {
	store := testStore()
	detector := visionmock.NewDetector()
	matcher := fmmock.NewScriptedMatcher(map[float32]string{1: "s1", 2: "s2"})
	manager := session.NewManager(session.Deps{
		Detector:    detector,
		Descriptors: facematch.NewDescriptorStore(store, 0),
		Students:    store,
		Attendance:  store,
		Marker:      attendance.NewWriter(store, fixedNow),
		NewMatcher:  matcher.Factory(),
		Now:         fixedNow,
	})
	manager.SetCameraFactory(func() camera.Device { return camera.NewPushCamera(true) })
	return &sessionsFixture{
		store:    store,
		detector: detector,
		manager:  manager,
		handler:  NewSessionsHandler(store, manager),
	}
}

func (f *sessionsFixture) create(t *testing.T, body string) (*httptest.ResponseRecorder, session.Snapshot) {
	t.Helper()
	recorder := httptest.NewRecorder()
	f.handler.Create(recorder, jsonRequest(http.MethodPost, "/api/v1/sessions", body, nil))
	var snap session.Snapshot
	if recorder.Code == http.StatusCreated {
		parseJSONResponse(t, recorder, &snap)
	}
	return recorder, snap
}

func (f *sessionsFixture) call(handler http.HandlerFunc, method, id, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler(recorder, jsonRequest(method, "/", body, map[string]string{"id": id}))
	return recorder
}

func (f *sessionsFixture) pushFrame(id string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := requestWithChiParams(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(testJPEG())), map[string]string{"id": id})
	req.Header.Set("Content-Type", "image/jpeg")
	f.handler.PushFrame(recorder, req)
	return recorder
}

func probeFace(key float32, score float64) vision.Face {
	return vision.Face{BBox: []float64{0.2, 0.2, 0.4, 0.4}, Embedding: fmmock.Probe(key), Score: score}
}

func TestSessionsHandler_KioskFlow(t *testing.T) {
	f := newSessionsFixture()

	recorder, snap := f.create(t, `{"class_id":"class01","mode":"kiosk"}`)
	assertStatusCode(t, recorder, http.StatusCreated)
	if snap.State != session.StateCameraOff || snap.Status != session.StatusReady {
		t.Fatalf("unexpected snapshot after create: %+v", snap)
	}
	if len(snap.Pending) != 2 {
		t.Fatalf("kiosk roster should hold the 2 enrolled students, got %d", len(snap.Pending))
	}

	recorder = f.call(f.handler.StartCamera, http.MethodPost, snap.ID, "")
	assertStatusCode(t, recorder, http.StatusOK)

	assertStatusCode(t, f.pushFrame(snap.ID), http.StatusAccepted)
	f.detector.Push(probeFace(1, 0.9), probeFace(7, 0.8))

	recorder = f.call(f.handler.Scan, http.MethodPost, snap.ID, "")
	assertStatusCode(t, recorder, http.StatusOK)
	var report session.ScanReport
	parseJSONResponse(t, recorder, &report)
	if report.Faces != 2 || report.Status != "Recognized: Rohan Kumar" {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Results[0].Outcome != roster.OutcomeMarked || report.Results[1].Outcome != roster.OutcomeUnknown {
		t.Errorf("unexpected outcomes %+v", report.Results)
	}
	if f.store.ReplaceCalls("s1") != 1 {
		t.Errorf("expected one write for s1, got %d", f.store.ReplaceCalls("s1"))
	}

	recorder = f.call(f.handler.Get, http.MethodGet, snap.ID, "")
	assertStatusCode(t, recorder, http.StatusOK)
	parseJSONResponse(t, recorder, &snap)
	if len(snap.Resolved) != 1 || snap.Resolved[0].ID != "s1" || len(snap.Log) != 1 {
		t.Errorf("unexpected snapshot after scan: %+v", snap)
	}

	recorder = f.call(f.handler.Stop, http.MethodDelete, snap.ID, "")
	assertStatusCode(t, recorder, http.StatusOK)
	parseJSONResponse(t, recorder, &snap)
	if !snap.Ended || snap.Status != session.StatusCameraStopped {
		t.Errorf("unexpected snapshot after stop: %+v", snap)
	}

	recorder = f.call(f.handler.Scan, http.MethodPost, snap.ID, "")
	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestSessionsHandler_CreateErrors(t *testing.T) {
	f := newSessionsFixture()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid mode", `{"class_id":"class01","mode":"batch"}`, http.StatusBadRequest},
		{"missing class", `{"mode":"kiosk"}`, http.StatusBadRequest},
		{"unknown class", `{"class_id":"class99","mode":"kiosk"}`, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder, _ := f.create(t, tc.body)
			assertStatusCode(t, recorder, tc.status)
		})
	}

	t.Run("class busy", func(t *testing.T) {
		recorder, _ := f.create(t, `{"class_id":"class01","mode":"live"}`)
		assertStatusCode(t, recorder, http.StatusCreated)

		recorder, _ = f.create(t, `{"class_id":"class01","mode":"kiosk"}`)
		assertStatusCode(t, recorder, http.StatusConflict)
	})
}

func TestSessionsHandler_CreateWithoutEnrolledStudents(t *testing.T) {
	f := newSessionsFixture()

	recorder, snap := f.create(t, `{"class_id":"class02","mode":"kiosk"}`)

	assertStatusCode(t, recorder, http.StatusCreated)
	if snap.State != session.StateError || snap.Status != session.StatusNoEnrolled || snap.Retryable {
		t.Errorf("expected terminal error snapshot, got %+v", snap)
	}
	recorder = f.call(f.handler.StartCamera, http.MethodPost, snap.ID, "")
	assertStatusCode(t, recorder, http.StatusConflict)
}

func TestSessionsHandler_CameraDeniedThenGranted(t *testing.T) {
	f := newSessionsFixture()
	_, snap := f.create(t, `{"class_id":"class01","mode":"live"}`)

	recorder := f.call(f.handler.StartCamera, http.MethodPost, snap.ID, `{"permitted":false}`)
	assertStatusCode(t, recorder, http.StatusForbidden)

	recorder = f.call(f.handler.Get, http.MethodGet, snap.ID, "")
	parseJSONResponse(t, recorder, &snap)
	if snap.State != session.StateError || !snap.Retryable || snap.Status != session.StatusCameraDenied {
		t.Errorf("unexpected snapshot after denial: %+v", snap)
	}

	recorder = f.call(f.handler.StartCamera, http.MethodPost, snap.ID, `{"permitted":true}`)
	assertStatusCode(t, recorder, http.StatusOK)
	parseJSONResponse(t, recorder, &snap)
	if snap.State != session.StateCameraOn {
		t.Errorf("expected camera_on after retry, got %s", snap.State)
	}
}

func TestSessionsHandler_ScanErrors(t *testing.T) {
	f := newSessionsFixture()
	_, snap := f.create(t, `{"class_id":"class01","mode":"kiosk"}`)

	t.Run("frame before camera", func(t *testing.T) {
		assertStatusCode(t, f.pushFrame(snap.ID), http.StatusConflict)
	})

	t.Run("scan before camera", func(t *testing.T) {
		assertStatusCode(t, f.call(f.handler.Scan, http.MethodPost, snap.ID, ""), http.StatusConflict)
	})

	t.Run("detector failure", func(t *testing.T) {
		assertStatusCode(t, f.call(f.handler.StartCamera, http.MethodPost, snap.ID, ""), http.StatusOK)
		assertStatusCode(t, f.pushFrame(snap.ID), http.StatusAccepted)
		f.detector.DetectError = errors.New("embedding server unreachable")

		recorder := f.call(f.handler.Scan, http.MethodPost, snap.ID, "")

		assertStatusCode(t, recorder, http.StatusBadGateway)
		assertJSONError(t, recorder, session.StatusFrameFailed)
		s, _ := f.manager.Get(snap.ID)
		if s.State() != session.StateCameraOn {
			t.Errorf("session should stay usable, got %s", s.State())
		}
	})

	t.Run("frame is not an image", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := requestWithChiParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello")), map[string]string{"id": snap.ID})
		req.Header.Set("Content-Type", "image/jpeg")
		f.handler.PushFrame(recorder, req)
		assertStatusCode(t, recorder, http.StatusUnsupportedMediaType)
		assertJSONError(t, recorder, errUnsupportedImage)
	})

	t.Run("empty frame", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := requestWithChiParams(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"id": snap.ID})
		f.handler.PushFrame(recorder, req)
		assertStatusCode(t, recorder, http.StatusBadRequest)
	})
}

func TestSessionsHandler_UnknownSession(t *testing.T) {
	f := newSessionsFixture()
	handlers := map[string]http.HandlerFunc{
		"get":    f.handler.Get,
		"camera": f.handler.StartCamera,
		"frames": f.handler.PushFrame,
		"scan":   f.handler.Scan,
		"stop":   f.handler.Stop,
		"events": f.handler.Events,
	}
	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			recorder := f.call(handler, http.MethodPost, "nope", "")
			assertStatusCode(t, recorder, http.StatusNotFound)
			assertJSONError(t, recorder, "session not found")
		})
	}
}

func TestSessionsHandler_List(t *testing.T) {
	f := newSessionsFixture()
	f.create(t, `{"class_id":"class01","mode":"kiosk"}`)
	f.create(t, `{"class_id":"class02","mode":"live"}`)

	recorder := httptest.NewRecorder()
	f.handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result []session.Snapshot
	parseJSONResponse(t, recorder, &result)
	if len(result) != 2 || result[0].ClassID != "class01" {
		t.Errorf("unexpected sessions %+v", result)
	}
}

// readEvent reads the next SSE event name from the stream.
func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading event stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestSessionsHandler_Events(t *testing.T) {
	f := newSessionsFixture()
	_, snap := f.create(t, `{"class_id":"class01","mode":"kiosk"}`)

	router := chi.NewRouter()
	router.Get("/sessions/{id}/events", f.handler.Events)
	server := httptest.NewServer(router)
	defer server.Close()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(server.URL + "/sessions/" + snap.ID + "/events")
	if err != nil {
		t.Fatalf("connecting to event stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	reader := bufio.NewReader(resp.Body)

	name, data := readEvent(t, reader)
	if name != "status" || !strings.Contains(data, `"state":"camera_off"`) {
		t.Fatalf("expected initial status event, got %s %s", name, data)
	}

	s, _ := f.manager.Get(snap.ID)
	if err := s.StartCamera(t.Context()); err != nil {
		t.Fatalf("StartCamera: %v", err)
	}
	name, _ = readEvent(t, reader)
	if name != session.EventTypeState {
		t.Errorf("expected state event, got %s", name)
	}

	s.Stop()
	for {
		name, data = readEvent(t, reader)
		if name == session.EventTypeEnded {
			break
		}
	}
	if !strings.Contains(data, `"ended":true`) {
		t.Errorf("ended event should carry the final snapshot, got %s", data)
	}
}

func TestSessionsHandler_EventsAfterStop(t *testing.T) {
	f := newSessionsFixture()
	_, snap := f.create(t, `{"class_id":"class01","mode":"kiosk"}`)
	_ = f.manager.Stop(snap.ID)

	recorder := httptest.NewRecorder()
	f.handler.Events(recorder, requestWithChiParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": snap.ID}))

	body := recorder.Body.String()
	if !strings.HasPrefix(body, "event: status\n") || !strings.Contains(body, `"ended":true`) {
		t.Errorf("unexpected stream %q", body)
	}
}
