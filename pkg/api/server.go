// Package api exposes the HTTP surface: health, log persistence routes, and
// the operator-triggered single-shot scenarios.
package api

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/severity"
	"github.com/trahulprabhu38/prometheus-prod/pkg/store"
)

// Simulated slow-operation bounds and the threshold above which the emitted
// warning is flagged as exceeded.
const (
	SlowMinDelay      = 1000 * time.Millisecond
	SlowMaxDelay      = 5000 * time.Millisecond
	SlowWarnThreshold = 3000 * time.Millisecond

	maxIngestBodyBytes = 1 << 20
)

// Server handles the API routes. The store may be nil, in which case the
// persistence routes answer 503 while the rest of the surface keeps working.
type Server struct {
	store      store.Store
	sink       observability.Sink
	classifier *severity.Classifier
	start      time.Time

	sleep   func(time.Duration)
	delayFn func(*rand.Rand) time.Duration
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// ServerOption customises server behaviour.
type ServerOption func(*Server)

// WithSleepFunc overrides the suspension used by the slow simulation.
func WithSleepFunc(fn func(time.Duration)) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithDelayFunc overrides how the slow simulation draws its delay.
func WithDelayFunc(fn func(*rand.Rand) time.Duration) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.delayFn = fn
		}
	}
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(fn func() time.Time) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithSeed makes the server's random draws reproducible.
func WithSeed(seed int64) ServerOption {
	return func(s *Server) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// New constructs the API server. The sink and classifier are required; the
// store is optional to allow degraded operation.
func New(st store.Store, sink observability.Sink, classifier *severity.Classifier, opts ...ServerOption) (*Server, error) {
	if sink == nil {
		return nil, errors.New("api server requires a sink")
	}
	if classifier == nil {
		return nil, errors.New("api server requires a classifier")
	}

	s := &Server{
		store:      st,
		sink:       sink,
		classifier: classifier,
		start:      time.Now(),
		sleep:      time.Sleep,
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.delayFn == nil {
		s.delayFn = func(r *rand.Rand) time.Duration {
			window := int64(SlowMaxDelay - SlowMinDelay)
			return SlowMinDelay + time.Duration(r.Int63n(window+1))
		}
	}
	return s, nil
}

// Routes returns the route table. Callers are expected to wrap it with the
// request instrumentation middleware.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/logs", s.handleLogsGet)
	mux.HandleFunc("POST /api/logs", s.handleLogsPost)
	mux.HandleFunc("GET /api/simulate/error", s.handleSimulateError)
	mux.HandleFunc("GET /api/simulate/warning", s.handleSimulateWarning)
	mux.HandleFunc("GET /api/simulate/auth-fail", s.handleSimulateAuthFail)
	mux.HandleFunc("GET /api/simulate/slow", s.handleSimulateSlow)
	return mux
}

// emit delivers an event to the sink. Endpoint contracts hold regardless of
// whether the sink accepted the event, so failures are dropped here.
func (s *Server) emit(r *http.Request, event observability.Event) {
	_ = s.sink.Emit(r.Context(), event)
}

func (s *Server) randInt63n(n int64) int64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Int63n(n)
}

func (s *Server) drawDelay() time.Duration {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.delayFn(s.rng)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
