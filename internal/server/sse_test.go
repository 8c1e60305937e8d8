package server

import (
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingWriter counts writes made after the handler is marked finished
type recordingWriter struct {
	mu       sync.Mutex
	header   http.Header
	body     strings.Builder
	finished bool
	late     int
}

func (w *recordingWriter) Header() http.Header { return w.header }

func (w *recordingWriter) WriteHeader(int) {}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		w.late++
	}
	return w.body.Write(p)
}

func (w *recordingWriter) Flush() {}

func (w *recordingWriter) finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finished = true
}

func TestKeepAliveStopsBeforeReturn(t *testing.T) {
	w := &recordingWriter{header: http.Header{}}
	events, err := newSSEWriter(w)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stop := events.startKeepAlive(time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	stop()
	w.finish()
	time.Sleep(20 * time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !strings.Contains(w.body.String(), ": keep-alive\n\n") {
		t.Errorf("Expected keep-alive comments, got %q", w.body.String())
	}
	if w.late != 0 {
		t.Errorf("Expected no writes after stop returned, got %d", w.late)
	}

	// A second stop is a no-op
	stop()
}

func TestSSEWriterSendsEvents(t *testing.T) {
	w := &recordingWriter{header: http.Header{}}
	events, err := newSSEWriter(w)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := events.Send("status", StatusEvent{Message: "Starting analysis..."}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := w.body.String(); got != "event: status\ndata: {\"message\":\"Starting analysis...\"}\n\n" {
		t.Errorf("Unexpected frame %q", got)
	}
	if ct := w.header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event stream content type, got %q", ct)
	}
}
