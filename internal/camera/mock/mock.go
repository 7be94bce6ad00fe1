// Package mock provides a camera.Device for testing.
package mock

import (
	"context"
	"sync"

	"github.com/aakash670/smart-attendance/internal/camera"
)

// Device hands out a fixed frame and records how it was used.
type Device struct {
	mu        sync.Mutex
	openCalls int
	stops     int

	// Frame is returned by every Frame call.
	Frame []byte
	// OpenError is returned by Open, e.g. camera.ErrPermissionDenied.
	OpenError error
	// FrameError is returned by Frame.
	FrameError error
}

// NewDevice creates a mock camera returning frame.
func NewDevice(frame []byte) *Device {
	return &Device{Frame: frame}
}

// Open records the call.
func (d *Device) Open(ctx context.Context) (camera.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openCalls++
	if d.OpenError != nil {
		return nil, d.OpenError
	}
	return &stream{dev: d}, nil
}

// SetOpenError changes the error returned by Open.
func (d *Device) SetOpenError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.OpenError = err
}

// OpenCalls returns how many times Open was called.
func (d *Device) OpenCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openCalls
}

// Stops returns how many streams were stopped.
func (d *Device) Stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

type stream struct {
	dev     *Device
	stopped bool
}

func (s *stream) Frame(ctx context.Context) ([]byte, error) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.stopped {
		return nil, camera.ErrStopped
	}
	if s.dev.FrameError != nil {
		return nil, s.dev.FrameError
	}
	return s.dev.Frame, nil
}

func (s *stream) Stop() {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.dev.stops++
}

var _ camera.Device = (*Device)(nil)
