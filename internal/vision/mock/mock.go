// Package mock provides a scripted vision.Detector for testing.
package mock

import (
	"context"
	"sync"

	"github.com/aakash670/smart-attendance/internal/vision"
)

// Detector returns scripted detections. Each DetectFaces call consumes the
// next entry of Frames; once exhausted the last entry is repeated.
type Detector struct {
	mu          sync.Mutex
	frames      [][]vision.Face
	next        int
	loadCalls   int
	detectCalls int

	// Error injection
	LoadError   error
	DetectError error

	// Gate, when set, blocks DetectFaces until a value is received or ctx is done.
	Gate chan struct{}
	// Entered, when set, receives a value as DetectFaces starts.
	Entered chan struct{}
}

// NewDetector creates a detector that returns the given frames in order.
func NewDetector(frames ...[]vision.Face) *Detector {
	return &Detector{frames: frames}
}

// Push appends a scripted frame.
func (d *Detector) Push(faces ...vision.Face) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, faces)
}

// LoadModels records the call and returns LoadError.
func (d *Detector) LoadModels(ctx context.Context) error {
	d.mu.Lock()
	d.loadCalls++
	d.mu.Unlock()
	return d.LoadError
}

// DetectFaces returns the next scripted frame.
func (d *Detector) DetectFaces(ctx context.Context, frame []byte) ([]vision.Face, error) {
	d.mu.Lock()
	d.detectCalls++
	d.mu.Unlock()

	if d.Entered != nil {
		d.Entered <- struct{}{}
	}
	if d.Gate != nil {
		select {
		case <-d.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.DetectError != nil {
		return nil, d.DetectError
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frames) == 0 {
		return nil, nil
	}
	idx := min(d.next, len(d.frames)-1)
	d.next++
	faces := make([]vision.Face, len(d.frames[idx]))
	copy(faces, d.frames[idx])
	vision.SortByScore(faces)
	return faces, nil
}

// LoadCalls returns the number of LoadModels calls.
func (d *Detector) LoadCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadCalls
}

// DetectCalls returns the number of DetectFaces calls.
func (d *Detector) DetectCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detectCalls
}

var _ vision.Detector = (*Detector)(nil)
