package camera

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrNotStreaming is returned by Push while no stream is open.
var ErrNotStreaming = errors.New("camera is not streaming")

// PushCamera is fed frames by a remote client, such as a browser kiosk
// uploading webcam captures. Each pushed frame is handed out once; Frame
// waits for the next push when the latest frame was already consumed.
type PushCamera struct {
	mu        sync.Mutex
	open      bool
	gen       uint64
	frame     []byte
	seq       uint64
	consumed  uint64
	ready     chan struct{}
	permitted bool
}

// NewPushCamera creates a push camera. A camera created with permitted=false
// refuses to open, mirroring a client that denied camera access.
func NewPushCamera(permitted bool) *PushCamera {
	return &PushCamera{permitted: permitted, ready: make(chan struct{})}
}

// SetPermitted records whether the remote client granted camera access.
func (c *PushCamera) SetPermitted(permitted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permitted = permitted
}

// Open starts accepting pushed frames.
func (c *PushCamera) Open(ctx context.Context) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.permitted {
		return nil, ErrPermissionDenied
	}
	c.open = true
	c.gen++
	c.frame = nil
	c.consumed = c.seq
	close(c.ready)
	c.ready = make(chan struct{})
	return &pushStream{cam: c, gen: c.gen}, nil
}

// Push publishes a new frame.
func (c *PushCamera) Push(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotStreaming
	}
	c.frame = slices.Clone(frame)
	c.seq++
	close(c.ready)
	c.ready = make(chan struct{})
	return nil
}

type pushStream struct {
	cam *PushCamera
	gen uint64
}

// live reports whether the stream is the current one. Caller holds c.mu.
func (s *pushStream) live() bool {
	return s.cam.open && s.cam.gen == s.gen
}

func (s *pushStream) Frame(ctx context.Context) ([]byte, error) {
	c := s.cam
	for {
		c.mu.Lock()
		if !s.live() {
			c.mu.Unlock()
			return nil, ErrStopped
		}
		if c.seq > c.consumed {
			c.consumed = c.seq
			frame := c.frame
			c.mu.Unlock()
			return frame, nil
		}
		ready := c.ready
		c.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *pushStream) Stop() {
	c := s.cam
	c.mu.Lock()
	defer c.mu.Unlock()
	if !s.live() {
		return
	}
	c.open = false
	c.frame = nil
	close(c.ready)
	c.ready = make(chan struct{})
}
