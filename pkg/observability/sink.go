package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Sink accepts structured events for delivery to an underlying log target.
//
// Implementations must tolerate concurrent callers. A failed write is
// reported through the returned error but is never fatal to the emitter.
type Sink interface {
	Emit(context.Context, Event) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(context.Context, Event) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// JSONSink writes each event as a single JSON object on its own line.
type JSONSink struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewJSONSink builds a JSONSink writing to the provided io.Writer.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, now: time.Now}
}

// Emit implements Sink by writing a JSON line representation of the event.
func (s *JSONSink) Emit(_ context.Context, event Event) error {
	if s == nil || s.w == nil {
		return fmt.Errorf("json sink is not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := s.w.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// MultiSink fans every event out to all configured sinks. Emit returns the
// first error encountered but still attempts delivery to the remaining sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines the given sinks into one. Nil entries are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &MultiSink{sinks: filtered}
}

// Emit implements Sink.
func (m *MultiSink) Emit(ctx context.Context, event Event) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ Sink = SinkFunc(nil)
	_ Sink = (*JSONSink)(nil)
	_ Sink = (*MultiSink)(nil)
)
