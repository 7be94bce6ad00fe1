package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aakash670/smart-attendance/internal/session"
)

// setupSSEConnection finds the session and sets up SSE headers.
// On failure it writes an error response and returns false.
func setupSSEConnection(w http.ResponseWriter, r *http.Request, lookup func(string) (*session.Session, error)) (*session.Session, http.Flusher, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return nil, nil, false
	}

	s, err := lookup(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, nil, false
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return s, flusher, true
}

// streamSessionEvents sends the current snapshot as a "status" event and then
// every session event until the session ends or the client disconnects.
func streamSessionEvents(w http.ResponseWriter, r *http.Request, lookup func(string) (*session.Session, error)) {
	s, flusher, ok := setupSSEConnection(w, r, lookup)
	if !ok {
		return
	}

	eventCh := s.AddListener()
	defer s.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", s.Snapshot())

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
			if event.Type == session.EventTypeEnded {
				return
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
