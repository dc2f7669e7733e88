package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prometheusNamespace = "logsim"

// Collector tracks emission and request activity in Prometheus primitives
// and exposes them through a dedicated registry.
type Collector struct {
	registry *prometheus.Registry

	eventsEmitted   *prometheus.CounterVec
	eventsDropped   prometheus.Counter
	sinkFailures    prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// NewCollector builds a collector backed by a dedicated Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "events_emitted_total",
			Help:      "Structured events emitted, by level and category.",
		}, []string{"level", "type"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "events_dropped_total",
			Help:      "Events discarded because the sink queue was full.",
		}),
		sinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "sink_write_failures_total",
			Help:      "Sink writes that returned an error.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prometheusNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Inbound HTTP request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	c.registry.MustRegister(c.eventsEmitted, c.eventsDropped, c.sinkFailures, c.requestDuration)
	return c
}

// RecordEvent counts one emitted event.
func (c *Collector) RecordEvent(event Event) {
	if c == nil {
		return
	}
	c.eventsEmitted.WithLabelValues(string(event.Level), event.Type).Inc()
}

// RecordDrop counts one event discarded under queue pressure.
func (c *Collector) RecordDrop() {
	if c == nil {
		return
	}
	c.eventsDropped.Inc()
}

// RecordSinkFailure counts one failed sink write.
func (c *Collector) RecordSinkFailure() {
	if c == nil {
		return
	}
	c.sinkFailures.Inc()
}

// ObserveRequest records the duration of one completed HTTP request.
func (c *Collector) ObserveRequest(method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Registry returns the underlying registry for use with HTTP handlers.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler exposes the Prometheus registry via an http.Handler.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Instrument wraps a sink so every event passing through is counted and
// write failures are tallied before being returned to the caller.
func Instrument(sink Sink, collector *Collector) Sink {
	if sink == nil || collector == nil {
		return sink
	}
	return SinkFunc(func(ctx context.Context, event Event) error {
		collector.RecordEvent(event)
		if err := sink.Emit(ctx, event); err != nil {
			collector.RecordSinkFailure()
			return err
		}
		return nil
	})
}
