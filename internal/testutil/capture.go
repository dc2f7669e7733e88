// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
)

// CaptureSink records every emitted event for later inspection. It is safe
// for concurrent use and can be primed to fail writes.
type CaptureSink struct {
	mu     sync.Mutex
	events []observability.Event
	err    error
}

// NewCaptureSink builds an empty capture sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// FailWith makes subsequent Emit calls return err while still recording.
func (s *CaptureSink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Emit implements observability.Sink.
func (s *CaptureSink) Emit(_ context.Context, event observability.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event.Clone())
	return s.err
}

// Events returns a copy of everything captured so far.
func (s *CaptureSink) Events() []observability.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]observability.Event(nil), s.events...)
}

// Len reports how many events were captured.
func (s *CaptureSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// WaitForEvents blocks until the sink has captured at least n events or the
// timeout elapses, failing the test in the latter case.
func (s *CaptureSink) WaitForEvents(t *testing.T, n int, timeout time.Duration) []observability.Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Len() >= n {
			return s.Events()
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, captured %d", n, s.Len())
	return nil
}

var _ observability.Sink = (*CaptureSink)(nil)
