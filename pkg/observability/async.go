package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// AsyncSink decouples emitters from a potentially slow inner sink through a
// bounded queue. Emit never blocks: when the queue is full the event is
// dropped, the drop is counted, and a note is written to the fallback writer.
type AsyncSink struct {
	inner    Sink
	queue    chan Event
	fallback io.Writer
	onDrop   func()

	dropped   atomic.Int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// AsyncOption customises AsyncSink behaviour.
type AsyncOption func(*AsyncSink)

// WithAsyncFallback overrides the writer receiving delivery failure notes.
func WithAsyncFallback(w io.Writer) AsyncOption {
	return func(s *AsyncSink) {
		if w != nil {
			s.fallback = w
		}
	}
}

// WithAsyncDropHook registers a callback invoked for every dropped event.
func WithAsyncDropHook(fn func()) AsyncOption {
	return func(s *AsyncSink) {
		s.onDrop = fn
	}
}

// NewAsyncSink wraps inner with a queue of the given capacity and starts the
// delivery worker. Callers own the sink lifecycle and must Close it to drain
// pending events.
func NewAsyncSink(inner Sink, capacity int, opts ...AsyncOption) (*AsyncSink, error) {
	if inner == nil {
		return nil, fmt.Errorf("async sink requires an inner sink")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("async sink capacity must be greater than zero")
	}

	s := &AsyncSink{
		inner:    inner,
		queue:    make(chan Event, capacity),
		fallback: os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.deliver()

	return s, nil
}

// Emit implements Sink. The event is queued for asynchronous delivery;
// a full queue results in a counted drop rather than blocking the caller.
func (s *AsyncSink) Emit(_ context.Context, event Event) error {
	select {
	case s.queue <- event:
		return nil
	default:
		s.dropped.Add(1)
		if s.onDrop != nil {
			s.onDrop()
		}
		fmt.Fprintf(s.fallback, "event queue full, dropped %q event\n", event.Type)
		return fmt.Errorf("event queue full")
	}
}

// Dropped reports how many events were discarded due to queue pressure.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close drains the queue and stops the delivery worker.
func (s *AsyncSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
	return nil
}

func (s *AsyncSink) deliver() {
	defer s.wg.Done()
	for event := range s.queue {
		if err := s.inner.Emit(context.Background(), event); err != nil {
			// Delivery failures are non-fatal; the fallback note is all we owe.
			fmt.Fprintf(s.fallback, "sink write failed: %v\n", err)
		}
	}
}

var _ Sink = (*AsyncSink)(nil)
