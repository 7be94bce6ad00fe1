package facematch

import (
	"context"
	"errors"
	"fmt"

	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/vision"
)

var (
	// ErrEmptyDescriptor is returned when storing a descriptor with no values.
	ErrEmptyDescriptor = errors.New("descriptor is empty")
	// ErrDimensionMismatch is returned when a descriptor has the wrong length.
	ErrDimensionMismatch = errors.New("descriptor dimension mismatch")
)

// FaceDetector is the part of vision.Detector needed for enrollment.
type FaceDetector interface {
	DetectFaces(ctx context.Context, frame []byte) ([]vision.Face, error)
}

// DescriptorStore keeps one reference descriptor per enrolled student.
type DescriptorStore struct {
	students database.StudentWriter
	dim      int
}

// NewDescriptorStore creates a store over the student repository. When dim > 0,
// descriptors of any other length are rejected.
func NewDescriptorStore(students database.StudentWriter, dim int) *DescriptorStore {
	return &DescriptorStore{students: students, dim: dim}
}

// DescriptorsForClass returns the descriptors of the enrolled students of a class.
// Students without a descriptor are left out.
func (s *DescriptorStore) DescriptorsForClass(ctx context.Context, classID string) ([]LabeledDescriptor, error) {
	students, err := s.students.ListStudentsByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("listing students of class %s: %w", classID, err)
	}

	refs := make([]LabeledDescriptor, 0, len(students))
	for i := range students {
		if !students[i].Enrolled() {
			continue
		}
		refs = append(refs, LabeledDescriptor{
			Label:      students[i].ID,
			Name:       students[i].Name,
			Descriptor: students[i].Descriptor,
		})
	}
	return refs, nil
}

// SetDescriptor replaces the descriptor of a student.
func (s *DescriptorStore) SetDescriptor(ctx context.Context, studentID string, descriptor []float32) error {
	if len(descriptor) == 0 {
		return ErrEmptyDescriptor
	}
	if s.dim > 0 && len(descriptor) != s.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(descriptor), s.dim)
	}
	if err := s.students.SetDescriptor(ctx, studentID, descriptor); err != nil {
		return fmt.Errorf("storing descriptor for %s: %w", studentID, err)
	}
	return nil
}

// EnrollFromImage detects the best face in an image and stores its embedding
// as the student's descriptor.
func (s *DescriptorStore) EnrollFromImage(ctx context.Context, detector FaceDetector, studentID string, image []byte) ([]float32, error) {
	if _, err := s.students.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}

	faces, err := detector.DetectFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}
	best, ok := vision.BestFace(faces)
	if !ok {
		return nil, vision.ErrNoFaceDetected
	}

	if err := s.SetDescriptor(ctx, studentID, best.Embedding); err != nil {
		return nil, err
	}
	return best.Embedding, nil
}
