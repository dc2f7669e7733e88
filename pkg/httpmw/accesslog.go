package httpmw

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
)

// AccessLogForwarder adapts the sink to an io.Writer so access-log lines
// from lower-level HTTP logging facilities can be forwarded as structured
// events. Lines are tagged as raw access-log entries at info level and are
// never reclassified.
type AccessLogForwarder struct {
	sink observability.Sink
	now  func() time.Time
}

// NewAccessLogForwarder builds the forwarder.
func NewAccessLogForwarder(sink observability.Sink) *AccessLogForwarder {
	return &AccessLogForwarder{sink: sink, now: time.Now}
}

// Write implements io.Writer. Each newline-separated line becomes one event.
func (f *AccessLogForwarder) Write(p []byte) (int, error) {
	if f == nil || f.sink == nil {
		return len(p), nil
	}

	for _, line := range bytes.Split(p, []byte{'\n'}) {
		text := strings.TrimSpace(string(line))
		if text == "" {
			continue
		}
		// Forwarding is best effort; a sink failure must not surface to the
		// logging facility handing us the line.
		_ = f.sink.Emit(context.Background(), observability.Event{
			Timestamp: f.now(),
			Level:     observability.LevelInfo,
			Message:   text,
			Type:      "access-log",
			Attributes: map[string]interface{}{
				"raw": true,
			},
		})
	}
	return len(p), nil
}
