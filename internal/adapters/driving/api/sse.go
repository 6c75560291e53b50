package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.ProgressSink = (*sseSink)(nil)

var errStreamClosed = errors.New("event stream closed")

// sseSink writes progress events as server-sent events and keeps idle
// connections open with comment heartbeats. Writes are serialized.
type sseSink struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	done    <-chan struct{}
	closed  bool
	failed  error

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// newSSESink starts the heartbeat. done is the request context's Done
// channel; once it is closed every Send fails.
func newSSESink(w http.ResponseWriter, done <-chan struct{}, heartbeat time.Duration) *sseSink {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &sseSink{w: w, done: done, stop: make(chan struct{})}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
		f.Flush()
	}

	s.wg.Add(1)
	go s.heartbeat(heartbeat)
	return s
}

func (s *sseSink) heartbeat(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.write(": keep-alive\n\n"); err != nil {
				return
			}
		}
	}
}

// Send writes one event as "event: <stage>" and "data: <json>".
func (s *sseSink) Send(_ context.Context, ev domain.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.write(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Stage, data))
}

func (s *sseSink) write(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	if s.failed != nil {
		return s.failed
	}
	select {
	case <-s.done:
		s.failed = errStreamClosed
		return s.failed
	default:
	}
	if _, err := io.WriteString(s.w, frame); err != nil {
		s.failed = err
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Close stops the heartbeat and waits for it, so nothing writes to the
// response after the handler returns. Safe to call more than once.
func (s *sseSink) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	})
	return nil
}
