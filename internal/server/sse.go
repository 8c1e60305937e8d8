package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// sseKeepAlive is how often a comment line is written while the model is quiet
const sseKeepAlive = 15 * time.Second

// sseWriter writes Server-Sent Events. Writes are serialized so the
// keep-alive goroutine can share the connection with the handler.
type sseWriter struct {
	mu  sync.Mutex
	w   http.ResponseWriter
	rc  *http.ResponseController
	err error
}

// newSSEWriter sends the event-stream headers and disables the server
// write deadline for the rest of the response.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("streaming not supported: %w", err)
	}
	// Not every writer supports deadlines; the stream still works without it
	_ = rc.SetWriteDeadline(time.Time{})

	return &sseWriter{w: w, rc: rc}, nil
}

// Send writes one event. After the first failed write every call returns that error.
func (s *sseWriter) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	return s.write(fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload))
}

func (s *sseWriter) comment(text string) error {
	return s.write(": " + text + "\n\n")
}

func (s *sseWriter) write(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		s.err = err
		return err
	}
	if err := s.rc.Flush(); err != nil {
		s.err = err
		return err
	}
	return nil
}

// startKeepAlive writes a comment every interval until the returned stop
// func is called. stop returns once the keep-alive goroutine has exited, so
// no write can follow it.
func (s *sseWriter) startKeepAlive(interval time.Duration) (stop func()) {
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.keepAlive(interval, quit)
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(quit) })
		<-done
	}
}

func (s *sseWriter) keepAlive(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.comment("keep-alive"); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
