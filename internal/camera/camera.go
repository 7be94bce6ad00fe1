// Package camera provides frame sources for attendance sessions.
package camera

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied is returned when access to the camera is refused.
	ErrPermissionDenied = errors.New("camera access denied")
	// ErrNoDevice is returned when no camera is available.
	ErrNoDevice = errors.New("no camera found")
	// ErrStopped is returned by a stream after Stop.
	ErrStopped = errors.New("camera stopped")
)

// Device is a camera that can be opened for streaming.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields encoded frames until stopped.
type Stream interface {
	// Frame returns the current frame as an encoded image.
	Frame(ctx context.Context) ([]byte, error)
	// Stop releases the camera. It is safe to call more than once.
	Stop()
}
