package handlers

import (
	"io"
	"log"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aakash670/smart-attendance/internal/constants"
	"github.com/aakash670/smart-attendance/internal/facematch"
	"github.com/aakash670/smart-attendance/internal/vision"
)

// StudentsHandler handles face enrollment
type StudentsHandler struct {
	descriptors *facematch.DescriptorStore
	detector    facematch.FaceDetector
}

// NewStudentsHandler creates a new students handler
func NewStudentsHandler(descriptors *facematch.DescriptorStore, detector facematch.FaceDetector) *StudentsHandler {
	return &StudentsHandler{descriptors: descriptors, detector: detector}
}

// DescriptorRequest sets a descriptor computed by the client.
type DescriptorRequest struct {
	Descriptor []float32 `json:"descriptor" validate:"required,min=1"`
}

// DescriptorResponse confirms an enrollment.
type DescriptorResponse struct {
	StudentID string `json:"student_id"`
	Dimension int    `json:"dimension"`
}

// SetDescriptor enrolls a student's face, replacing any earlier descriptor.
// The body is either JSON with a descriptor or a multipart form with an
// "image" file whose best face is embedded.
func (h *StudentsHandler) SetDescriptor(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		h.enrollFromImage(w, r, studentID)
		return
	}

	var req DescriptorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.descriptors.SetDescriptor(r.Context(), studentID, req.Descriptor); err != nil {
		respondErr(w, err, "failed to save descriptor")
		return
	}
	log.Printf("Enrolled face for student %s", sanitizeForLog(studentID))
	respondJSON(w, http.StatusOK, DescriptorResponse{StudentID: studentID, Dimension: len(req.Descriptor)})
}

func (h *StudentsHandler) enrollFromImage(w http.ResponseWriter, r *http.Request, studentID string) {
	if h.detector == nil {
		respondError(w, http.StatusServiceUnavailable, "face detection is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if _, err := vision.CheckImage(data); err != nil {
		respondError(w, http.StatusUnsupportedMediaType, errUnsupportedImage)
		return
	}

	descriptor, err := h.descriptors.EnrollFromImage(r.Context(), h.detector, studentID, data)
	if err != nil {
		log.Printf("Enrolling %s from image: %v", sanitizeForLog(studentID), err)
		respondErr(w, err, "failed to enroll face")
		return
	}
	log.Printf("Enrolled face for student %s from image", sanitizeForLog(studentID))
	respondJSON(w, http.StatusOK, DescriptorResponse{StudentID: studentID, Dimension: len(descriptor)})
}
