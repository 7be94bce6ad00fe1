package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aakash670/smart-attendance/internal/facematch"
	"github.com/aakash670/smart-attendance/internal/vision"
	visionmock "github.com/aakash670/smart-attendance/internal/vision/mock"
)

func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "face.jpg")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	part.Write(data)
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestStudentsHandler_SetDescriptorJSON(t *testing.T) {
	store := testStore()
	handler := NewStudentsHandler(facematch.NewDescriptorStore(store, 4), nil)

	tests := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{"enroll", "s3", `{"descriptor":[0.1,0.2,0.3,0.4]}`, http.StatusOK},
		{"re-enroll overwrites", "s1", `{"descriptor":[9,9,9,9]}`, http.StatusOK},
		{"empty descriptor", "s3", `{"descriptor":[]}`, http.StatusBadRequest},
		{"wrong dimension", "s3", `{"descriptor":[1,2]}`, http.StatusBadRequest},
		{"unknown student", "s99", `{"descriptor":[1,2,3,4]}`, http.StatusNotFound},
		{"malformed", "s3", `{"descriptor":"abc"}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			handler.SetDescriptor(recorder, jsonRequest(http.MethodPut, "/", tc.body, map[string]string{"id": tc.id}))

			assertStatusCode(t, recorder, tc.status)
		})
	}

	s1, _ := store.GetStudent(context.Background(), "s1")
	if s1.Descriptor[0] != 9 {
		t.Errorf("descriptor not overwritten: %v", s1.Descriptor)
	}
	s3, _ := store.GetStudent(context.Background(), "s3")
	if !s3.Enrolled() {
		t.Error("s3 should be enrolled")
	}
}

func TestStudentsHandler_SetDescriptorFromImage(t *testing.T) {
	store := testStore()
	detector := visionmock.NewDetector([]vision.Face{
		{Embedding: []float32{0, 0, 1, 0}, Score: 0.7},
		{Embedding: []float32{0, 0, 0, 1}, Score: 0.95},
	})
	handler := NewStudentsHandler(facematch.NewDescriptorStore(store, 4), detector)

	body, contentType := multipartImage(t, "image", testJPEG())
	req := requestWithChiParams(httptest.NewRequest(http.MethodPut, "/", body), map[string]string{"id": "s3"})
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	handler.SetDescriptor(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result DescriptorResponse
	parseJSONResponse(t, recorder, &result)
	if result.Dimension != 4 {
		t.Errorf("expected dimension 4, got %d", result.Dimension)
	}
	s3, _ := store.GetStudent(context.Background(), "s3")
	if s3.Descriptor[3] != 1 {
		t.Errorf("expected the best-scoring face, got %v", s3.Descriptor)
	}
}

func TestStudentsHandler_SetDescriptorFromImageErrors(t *testing.T) {
	t.Run("no face", func(t *testing.T) {
		handler := NewStudentsHandler(facematch.NewDescriptorStore(testStore(), 4), visionmock.NewDetector())
		body, contentType := multipartImage(t, "image", testJPEG())
		req := requestWithChiParams(httptest.NewRequest(http.MethodPut, "/", body), map[string]string{"id": "s3"})
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()

		handler.SetDescriptor(recorder, req)

		assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
		assertJSONError(t, recorder, vision.ErrNoFaceDetected.Error())
	})

	t.Run("not an image", func(t *testing.T) {
		detector := visionmock.NewDetector([]vision.Face{{Embedding: []float32{0, 0, 1, 0}, Score: 0.9}})
		store := testStore()
		handler := NewStudentsHandler(facematch.NewDescriptorStore(store, 4), detector)
		body, contentType := multipartImage(t, "image", []byte("hello"))
		req := requestWithChiParams(httptest.NewRequest(http.MethodPut, "/", body), map[string]string{"id": "s3"})
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()

		handler.SetDescriptor(recorder, req)

		assertStatusCode(t, recorder, http.StatusUnsupportedMediaType)
		assertJSONError(t, recorder, errUnsupportedImage)
		if s3, _ := store.GetStudent(context.Background(), "s3"); s3.Enrolled() {
			t.Error("s3 must not be enrolled from a non-image upload")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		handler := NewStudentsHandler(facematch.NewDescriptorStore(testStore(), 4), visionmock.NewDetector())
		body, contentType := multipartImage(t, "photo", testJPEG())
		req := requestWithChiParams(httptest.NewRequest(http.MethodPut, "/", body), map[string]string{"id": "s3"})
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()

		handler.SetDescriptor(recorder, req)

		assertStatusCode(t, recorder, http.StatusBadRequest)
		assertJSONError(t, recorder, "image is required")
	})

	t.Run("no detector", func(t *testing.T) {
		handler := NewStudentsHandler(facematch.NewDescriptorStore(testStore(), 4), nil)
		body, contentType := multipartImage(t, "image", testJPEG())
		req := requestWithChiParams(httptest.NewRequest(http.MethodPut, "/", body), map[string]string{"id": "s3"})
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()

		handler.SetDescriptor(recorder, req)

		assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	})
}
