package session

import (
	"sync"

	"github.com/aakash670/smart-attendance/internal/constants"
)

// Event types sent to listeners.
const (
	EventTypeState = "state"
	EventTypeScan  = "scan"
	EventTypeEnded = "ended"
)

// Notice is a session event delivered to listeners.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Broadcaster fans session events out to listeners.
type Broadcaster struct {
	listeners []chan Notice
	closed    bool
	mu        sync.RWMutex
}

// AddListener adds an event listener. On a closed broadcaster the returned
// channel is already closed.
func (b *Broadcaster) AddListener() chan Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Notice, constants.EventChannelBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *Broadcaster) RemoveListener(ch chan Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *Broadcaster) SendEvent(event Notice) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// closeListeners closes every listener channel. Later events are dropped.
func (b *Broadcaster) closeListeners() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.listeners {
		close(ch)
	}
	b.listeners = nil
}
