package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// MaxFrameBytes caps the size of a single snapshot.
const MaxFrameBytes = 20 << 20

// SnapshotCamera reads JPEG snapshots from an IP camera HTTP endpoint.
type SnapshotCamera struct {
	url      string
	username string
	password string
	client   *http.Client
}

// NewSnapshotCamera creates a camera for the given snapshot URL. Basic auth is
// used when username is set.
func NewSnapshotCamera(url, username, password string) *SnapshotCamera {
	return &SnapshotCamera{
		url:      url,
		username: username,
		password: password,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Open fetches one snapshot to verify the camera is reachable and authorized.
func (c *SnapshotCamera) Open(ctx context.Context) (Stream, error) {
	if c.url == "" {
		return nil, ErrNoDevice
	}
	s := &snapshotStream{cam: c}
	if _, err := s.Frame(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *SnapshotCamera) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrPermissionDenied, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: status %d", ErrNoDevice, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("snapshot failed (status %d)", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFrameBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty snapshot")
	}
	return data, nil
}

type snapshotStream struct {
	cam     *SnapshotCamera
	mu      sync.Mutex
	stopped bool
}

func (s *snapshotStream) Frame(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil, ErrStopped
	}
	return s.cam.fetch(ctx)
}

func (s *snapshotStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}
