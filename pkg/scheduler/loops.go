package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/scenario"
)

// runFast emits a random handful of catalog events every fast interval.
func (s *Scheduler) runFast(ctx context.Context) {
	rng := s.loopRand(1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.tickFast(ctx, rng)

		if err := s.sleepWithContext(ctx, s.fastInterval); err != nil {
			return
		}
	}
}

// tickFast selects between minPerTick and maxPerTick scenarios uniformly at
// random from the catalog and emits one event per selection.
func (s *Scheduler) tickFast(ctx context.Context, rng *rand.Rand) {
	count := s.minPerTick
	if s.maxPerTick > s.minPerTick {
		count += rng.Intn(s.maxPerTick - s.minPerTick + 1)
	}
	for i := 0; i < count; i++ {
		s.emit(ctx, s.catalog.Generate(rng))
	}
}

// runHealth emits the fixed-shape process health snapshot on its own cadence.
func (s *Scheduler) runHealth(ctx context.Context) {
	for {
		if err := s.sleepWithContext(ctx, s.healthInterval); err != nil {
			return
		}

		s.emit(ctx, scenario.HealthReport(s.start))
	}
}

// runBurst waits a jittered period, then emits one burst-detected warning
// followed by the burst's cascading failures staggered a fixed delay apart.
// Cancellation between staggered emissions abandons the rest of the burst.
func (s *Scheduler) runBurst(ctx context.Context) {
	rng := s.loopRand(2)
	for {
		if err := s.sleepWithContext(ctx, s.nextBurstDelay(rng)); err != nil {
			return
		}

		if err := s.emitBurst(ctx, rng); err != nil {
			return
		}
	}
}

// nextBurstDelay draws the next burst period uniformly from [burstMin, burstMax].
func (s *Scheduler) nextBurstDelay(rng *rand.Rand) time.Duration {
	window := s.burstMax - s.burstMin
	if window <= 0 {
		return s.burstMin
	}
	return s.burstMin + time.Duration(rng.Int63n(int64(window)+1))
}

func (s *Scheduler) emitBurst(ctx context.Context, rng *rand.Rand) error {
	burst := scenario.NewBurst(rng)
	s.emit(ctx, burst.Detected())

	for i := 0; i < burst.Size; i++ {
		if err := s.sleepWithContext(ctx, s.stagger); err != nil {
			return err
		}
		s.emit(ctx, burst.Failure(rng, i))
	}
	return nil
}
