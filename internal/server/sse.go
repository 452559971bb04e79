package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SSE event names
const (
	EventStep     = "step"
	EventComplete = "complete"
	EventError    = "error"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the stream headers and returns a writer.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(body ErrorBody) error {
	return s.WriteEvent(EventError, body)
}

// WriteComplete sends the final result
func (s *SSEWriter) WriteComplete(result any) error {
	return s.WriteEvent(EventComplete, result)
}
