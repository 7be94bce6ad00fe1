package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aakash670/smart-attendance/internal/camera"
	"github.com/aakash670/smart-attendance/internal/constants"
	"github.com/aakash670/smart-attendance/internal/roster"
)

// ErrClassBusy is returned when a class already has a live session.
var ErrClassBusy = errors.New("class already has an active session")

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Manager owns the sessions of a server and allows one live session per class.
type Manager struct {
	deps      Deps
	newCamera func() camera.Device
	sessions  map[string]*Session
	byClass   map[string]*Session
	order     []string
	mu        sync.RWMutex
}

// NewManager creates a session manager sharing deps between sessions.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
		byClass:  make(map[string]*Session),
	}
}

// SetCameraFactory gives every new session its own camera device instead of
// the shared deps camera. Used for kiosks that push frames over HTTP.
func (m *Manager) SetCameraFactory(f func() camera.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newCamera = f
}

// Create registers a new idle session for the class.
func (m *Manager) Create(classID string, mode roster.Mode) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if live, ok := m.byClass[classID]; ok && live.Live() {
		return nil, fmt.Errorf("%w: %s", ErrClassBusy, classID)
	}
	deps := m.deps
	if m.newCamera != nil {
		deps.Camera = m.newCamera()
	}
	s, err := New(classID, mode, deps)
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID()] = s
	m.byClass[classID] = s
	m.order = append(m.order, s.ID())
	m.pruneLocked()
	return s, nil
}

// StartSession creates a session and loads it. The session is returned even
// when starting fails so its status can be shown.
func (m *Manager) StartSession(ctx context.Context, classID string, mode roster.Mode) (*Session, error) {
	s, err := m.Create(classID, mode)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Stop ends a session.
func (m *Manager) Stop(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Stop()
	return nil
}

// List returns all known sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sessions[id])
	}
	return out
}

// StopAll ends every session.
func (m *Manager) StopAll() {
	for _, s := range m.List() {
		s.Stop()
	}
}

// pruneLocked drops the oldest finished sessions beyond the retention limit.
func (m *Manager) pruneLocked() {
	ended := 0
	for _, id := range m.order {
		if !m.sessions[id].Live() {
			ended++
		}
	}
	if ended <= constants.SessionRetention {
		return
	}
	drop := ended - constants.SessionRetention
	m.order = slices.DeleteFunc(m.order, func(id string) bool {
		s := m.sessions[id]
		if drop == 0 || s.Live() {
			return false
		}
		drop--
		delete(m.sessions, id)
		if m.byClass[s.ClassID()] == s {
			delete(m.byClass, s.ClassID())
		}
		return true
	})
}
