// Package scheduler drives the scenario catalog at several independent
// cadences for the lifetime of the process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/scenario"
)

// Default cadences. The burst period is re-drawn uniformly from
// [DefaultBurstMinInterval, DefaultBurstMaxInterval] on every cycle.
const (
	DefaultFastInterval     = 800 * time.Millisecond
	DefaultHealthInterval   = 10 * time.Second
	DefaultBurstMinInterval = 30 * time.Second
	DefaultBurstMaxInterval = 60 * time.Second
	DefaultBurstStagger     = 200 * time.Millisecond

	DefaultMinPerTick = 1
	DefaultMaxPerTick = 4
)

// Scheduler owns the three periodic emission loops (fast catalog ticks,
// health snapshots, jittered error bursts). The loops are independent: a
// slow or failing sink write in one never skews the cadence of another.
// Run drives all three until the context is cancelled; cancellation also
// abandons any staggered burst emissions still pending.
type Scheduler struct {
	catalog *scenario.Registry
	sink    observability.Sink
	start   time.Time

	fastInterval   time.Duration
	healthInterval time.Duration
	burstMin       time.Duration
	burstMax       time.Duration
	stagger        time.Duration
	minPerTick     int
	maxPerTick     int

	seed         int64
	sleep        func(time.Duration)
	errorHandler func(error)
}

// Option customises scheduler behaviour.
type Option func(*Scheduler)

// WithSleepFunc overrides the sleep implementation used between ticks and
// staggered burst emissions.
func WithSleepFunc(fn func(time.Duration)) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithErrorHandler registers a callback for sink write failures.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.errorHandler = fn
	}
}

// WithSeed makes all random draws reproducible.
func WithSeed(seed int64) Option {
	return func(s *Scheduler) {
		s.seed = seed
	}
}

// WithFastInterval overrides the fast loop period.
func WithFastInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.fastInterval = d
		}
	}
}

// WithHealthInterval overrides the health snapshot period.
func WithHealthInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.healthInterval = d
		}
	}
}

// WithBurstInterval overrides the bounds of the jittered burst period.
func WithBurstInterval(min, max time.Duration) Option {
	return func(s *Scheduler) {
		if min > 0 {
			s.burstMin = min
		}
		if max > 0 {
			s.burstMax = max
		}
	}
}

// WithBurstStagger overrides the delay between cascading failure emissions.
func WithBurstStagger(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.stagger = d
		}
	}
}

// WithScenariosPerTick overrides how many catalog scenarios each fast tick
// selects.
func WithScenariosPerTick(min, max int) Option {
	return func(s *Scheduler) {
		if min > 0 {
			s.minPerTick = min
		}
		if max > 0 {
			s.maxPerTick = max
		}
	}
}

// New constructs a Scheduler emitting catalog events to the provided sink.
func New(catalog *scenario.Registry, sink observability.Sink, opts ...Option) (*Scheduler, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, errors.New("scheduler requires a non-empty scenario catalog")
	}
	if sink == nil {
		return nil, errors.New("scheduler requires a sink")
	}

	s := &Scheduler{
		catalog:        catalog,
		sink:           sink,
		start:          time.Now(),
		fastInterval:   DefaultFastInterval,
		healthInterval: DefaultHealthInterval,
		burstMin:       DefaultBurstMinInterval,
		burstMax:       DefaultBurstMaxInterval,
		stagger:        DefaultBurstStagger,
		minPerTick:     DefaultMinPerTick,
		maxPerTick:     DefaultMaxPerTick,
		sleep:          time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sleep == nil {
		s.sleep = time.Sleep
	}
	if s.burstMax < s.burstMin {
		return nil, fmt.Errorf("burst interval bounds inverted: %v > %v", s.burstMin, s.burstMax)
	}
	if s.maxPerTick < s.minPerTick {
		return nil, fmt.Errorf("scenarios per tick bounds inverted: %d > %d", s.minPerTick, s.maxPerTick)
	}
	if s.errorHandler == nil {
		s.errorHandler = func(err error) {
			fmt.Fprintf(os.Stderr, "scheduler sink write failed: %v\n", err)
		}
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	return s, nil
}

// Run starts the three loops and blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.runFast(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runHealth(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runBurst(ctx)
	}()
	wg.Wait()

	return ctx.Err()
}

// emit writes one event to the sink. Failures are handed to the error
// handler and otherwise swallowed so a bad write never aborts a tick.
func (s *Scheduler) emit(ctx context.Context, event observability.Event) {
	if err := s.sink.Emit(ctx, event); err != nil {
		s.errorHandler(err)
	}
}

func (s *Scheduler) sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.sleep(d)
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// loopRand derives a per-loop random source so the loops never contend on
// one generator and runs stay reproducible under a fixed seed.
func (s *Scheduler) loopRand(offset int64) *rand.Rand {
	return rand.New(rand.NewSource(s.seed + offset))
}
