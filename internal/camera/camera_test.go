package camera

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSnapshotCamera_Open(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"ok", http.StatusOK, nil},
		{"unauthorized", http.StatusUnauthorized, ErrPermissionDenied},
		{"forbidden", http.StatusForbidden, ErrPermissionDenied},
		{"missing", http.StatusNotFound, ErrNoDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				if !ok || user != "cam" || pass != "secret" {
					t.Errorf("expected basic auth, got %q/%q (%v)", user, pass, ok)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("\xff\xd8\xffjpeg"))
			}))
			defer server.Close()

			cam := NewSnapshotCamera(server.URL, "cam", "secret")
			stream, err := cam.Open(context.Background())

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			frame, err := stream.Frame(context.Background())
			if err != nil || len(frame) == 0 {
				t.Errorf("Frame() = %d bytes, %v", len(frame), err)
			}

			stream.Stop()
			stream.Stop()
			if _, err := stream.Frame(context.Background()); !errors.Is(err, ErrStopped) {
				t.Errorf("expected ErrStopped after Stop, got %v", err)
			}
		})
	}
}

func TestSnapshotCamera_Unconfigured(t *testing.T) {
	_, err := NewSnapshotCamera("", "", "").Open(context.Background())
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
}

func TestSnapshotCamera_Unreachable(t *testing.T) {
	_, err := NewSnapshotCamera("http://127.0.0.1:1/snapshot.jpg", "", "").Open(context.Background())
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
}

func TestPushCamera_DeniedUntilPermitted(t *testing.T) {
	cam := NewPushCamera(false)

	if _, err := cam.Open(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	cam.SetPermitted(true)
	if _, err := cam.Open(context.Background()); err != nil {
		t.Fatalf("Open after permit: %v", err)
	}
}

func TestPushCamera_PushBeforeOpen(t *testing.T) {
	cam := NewPushCamera(true)

	if err := cam.Push([]byte("frame")); !errors.Is(err, ErrNotStreaming) {
		t.Errorf("expected ErrNotStreaming, got %v", err)
	}
}

func TestPushCamera_FrameWaitsForPush(t *testing.T) {
	cam := NewPushCamera(true)
	stream, err := cam.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got := make(chan []byte, 1)
	go func() {
		frame, err := stream.Frame(context.Background())
		if err != nil {
			t.Errorf("Frame: %v", err)
		}
		got <- frame
	}()

	time.Sleep(10 * time.Millisecond)
	if err := cam.Push([]byte("frame-1")); err != nil {
		t.Fatalf("Push: %v", err)
	}

	select {
	case frame := <-got:
		if string(frame) != "frame-1" {
			t.Errorf("got %q, want frame-1", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Frame did not return after Push")
	}
}

func TestPushCamera_FrameConsumedOnce(t *testing.T) {
	cam := NewPushCamera(true)
	stream, _ := cam.Open(context.Background())
	_ = cam.Push([]byte("a"))
	_ = cam.Push([]byte("b"))

	frame, err := stream.Frame(context.Background())
	if err != nil || string(frame) != "b" {
		t.Fatalf("expected latest frame b, got %q, %v", frame, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := stream.Frame(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected to wait for a new frame, got %v", err)
	}
}

func TestPushCamera_StopWakesWaiters(t *testing.T) {
	cam := NewPushCamera(true)
	stream, _ := cam.Open(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := stream.Frame(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	stream.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not wake the waiting Frame call")
	}

	if err := cam.Push([]byte("late")); !errors.Is(err, ErrNotStreaming) {
		t.Errorf("expected ErrNotStreaming after Stop, got %v", err)
	}
}
