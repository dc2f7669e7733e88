// Package httpmw instruments the HTTP request lifecycle with structured
// start/finish events.
package httpmw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/severity"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// RequestIDFromContext returns the request identifier assigned by the
// middleware, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Middleware wraps inbound handlers, measuring every request and emitting a
// request-received event before the handler runs and a request-completed
// event after it returns. Requests slower than the configured threshold gain
// an additional dedicated warning, independent of the status-derived level.
type Middleware struct {
	sink       observability.Sink
	classifier *severity.Classifier
	collector  *observability.Collector

	slowThreshold time.Duration
	now           func() time.Time
	newID         func() string
}

// MiddlewareOption customises the middleware.
type MiddlewareOption func(*Middleware)

// WithCollector wires request durations into the Prometheus collector.
func WithCollector(c *observability.Collector) MiddlewareOption {
	return func(m *Middleware) {
		m.collector = c
	}
}

// WithSlowThreshold overrides the slow-request warning threshold.
func WithSlowThreshold(d time.Duration) MiddlewareOption {
	return func(m *Middleware) {
		if d > 0 {
			m.slowThreshold = d
		}
	}
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(fn func() time.Time) MiddlewareOption {
	return func(m *Middleware) {
		if fn != nil {
			m.now = fn
		}
	}
}

// WithIDFunc overrides request ID generation, for tests.
func WithIDFunc(fn func() string) MiddlewareOption {
	return func(m *Middleware) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// New constructs the instrumentation middleware.
func New(sink observability.Sink, classifier *severity.Classifier, opts ...MiddlewareOption) (*Middleware, error) {
	if sink == nil {
		return nil, errors.New("middleware requires a sink")
	}
	if classifier == nil {
		return nil, errors.New("middleware requires a classifier")
	}

	m := &Middleware{
		sink:          sink,
		classifier:    classifier,
		slowThreshold: severity.DefaultGeneralThreshold,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Wrap returns a handler emitting lifecycle events around next. A panic in
// next is recovered, answered with a 500, and recorded as an error-level
// completion event carrying the failure message; the panic does not escape.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := m.newID()
		start := m.now()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		m.emit(ctx, observability.Event{
			Timestamp: start,
			Level:     observability.LevelInfo,
			Message:   fmt.Sprintf("%s %s received", r.Method, r.URL.Path),
			Type:      "request",
			Attributes: map[string]interface{}{
				"requestId": requestID,
				"method":    r.Method,
				"path":      r.URL.Path,
				"query":     r.URL.RawQuery,
				"remote":    r.RemoteAddr,
				"userAgent": r.UserAgent(),
			},
		})

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		var failure interface{}
		func() {
			defer func() {
				failure = recover()
			}()
			next.ServeHTTP(rec, r)
		}()

		finish := m.now()
		duration := finish.Sub(start)

		if failure != nil {
			if !rec.wroteHeader {
				http.Error(rec, "internal server error", http.StatusInternalServerError)
			}
			m.emit(ctx, observability.Event{
				Timestamp: finish,
				Level:     observability.LevelError,
				Message:   fmt.Sprintf("%s %s failed", r.Method, r.URL.Path),
				Type:      "request",
				Attributes: map[string]interface{}{
					"requestId":  requestID,
					"method":     r.Method,
					"path":       r.URL.Path,
					"statusCode": rec.status,
					"durationMs": duration.Milliseconds(),
					"error":      fmt.Sprintf("%v", failure),
				},
			})
		} else {
			m.emit(ctx, observability.Event{
				Timestamp: finish,
				Level:     m.classifier.Classify(severity.Signal{StatusCode: rec.status}),
				Message:   fmt.Sprintf("%s %s completed with %d", r.Method, r.URL.Path, rec.status),
				Type:      "request",
				Attributes: map[string]interface{}{
					"requestId":  requestID,
					"method":     r.Method,
					"path":       r.URL.Path,
					"statusCode": rec.status,
					"durationMs": duration.Milliseconds(),
					"bytes":      rec.bytes,
				},
			})
		}

		if duration > m.slowThreshold {
			m.emit(ctx, observability.Event{
				Timestamp: finish,
				Level:     observability.LevelWarn,
				Message:   fmt.Sprintf("slow request: %s %s", r.Method, r.URL.Path),
				Type:      "performance",
				Attributes: map[string]interface{}{
					"requestId":   requestID,
					"path":        r.URL.Path,
					"durationMs":  duration.Milliseconds(),
					"thresholdMs": m.slowThreshold.Milliseconds(),
				},
			})
		}

		m.collector.ObserveRequest(r.Method, rec.status, duration)
	})
}

// emit never propagates sink failures to the request path.
func (m *Middleware) emit(ctx context.Context, event observability.Event) {
	if err := m.sink.Emit(ctx, event); err != nil {
		m.collector.RecordSinkFailure()
	}
}

// responseRecorder captures the status code and body size written by the
// downstream handler.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += int64(n)
	return n, err
}
