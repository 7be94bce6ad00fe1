// Package vision detects faces in camera frames and computes their descriptors.
package vision

import (
	"context"
	"errors"
)

// ErrNoFaceDetected is returned when an image that must contain a face has none.
var ErrNoFaceDetected = errors.New("no face detected")

// ErrModelsUnavailable is returned by LoadModels when the detection models cannot be used.
var ErrModelsUnavailable = errors.New("face models unavailable")

// Face is one detected face.
type Face struct {
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2] relative to the frame (0-1)
	Embedding []float32 `json:"-"`
	Score     float64   `json:"score"`
}

// Detector is the face detection and description capability.
type Detector interface {
	// LoadModels makes the detector ready. It is called once per session.
	LoadModels(ctx context.Context) error
	// DetectFaces returns every face found in an encoded image, best score first.
	// A frame without faces yields an empty slice and no error.
	DetectFaces(ctx context.Context, frame []byte) ([]Face, error)
}
