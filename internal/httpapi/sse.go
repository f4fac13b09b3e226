package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// sseWriter writes server-sent events. Headers are committed with the first
// event so errors raised before any output can still become a JSON error.
type sseWriter struct {
	w       http.ResponseWriter
	out     io.Writer
	flusher http.Flusher
	started bool
}

func newSSEWriter(w http.ResponseWriter, echo bool) *sseWriter {
	s := &sseWriter{w: w, out: w}
	if echo {
		s.out = io.MultiWriter(w, &loggingLineWriter{})
	}
	s.flusher, _ = w.(http.Flusher)
	return s
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

// event writes v as one JSON data event.
func (s *sseWriter) event(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.data(b)
}

// done terminates the stream.
func (s *sseWriter) done() error {
	return s.data([]byte("[DONE]"))
}

func (s *sseWriter) data(b []byte) error {
	s.start()
	if _, err := fmt.Fprintf(s.out, "data: %s\n\n", b); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
