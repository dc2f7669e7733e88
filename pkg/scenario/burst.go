package scenario

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
)

// Burst bounds for the number of cascading failures triggered per cycle.
const (
	MinBurstSize = 2
	MaxBurstSize = 6
)

// Burst describes one cluster of correlated cascading failures. Every event
// belonging to the burst carries the same correlation identifier; the
// identifier is freshly drawn per burst, so overlapping bursts never share
// or collide on it.
type Burst struct {
	CorrelationID string
	Size          int
}

// NewBurst draws a burst size in [MinBurstSize, MaxBurstSize] and assigns a
// fresh correlation identifier.
func NewBurst(r *rand.Rand) Burst {
	return Burst{
		CorrelationID: uuid.NewString(),
		Size:          between(r, MinBurstSize, MaxBurstSize),
	}
}

// Detected returns the leading warning announcing the burst.
func (b Burst) Detected() observability.Event {
	return observability.Event{
		Timestamp: time.Now(),
		Level:     observability.LevelWarn,
		Message:   "error burst detected",
		Type:      NameAppError,
		Attributes: map[string]interface{}{
			"correlationId": b.CorrelationID,
			"burstSize":     b.Size,
		},
	}
}

// Failure returns the cascading failure event at the given index within the
// burst. Indexes are zero-based and emitted in order by the scheduler.
func (b Burst) Failure(r *rand.Rand, index int) observability.Event {
	service := pick(r, services)
	return observability.Event{
		Timestamp: time.Now(),
		Level:     observability.LevelError,
		Message:   fmt.Sprintf("cascading failure in %s", service),
		Type:      NameAppError,
		Attributes: map[string]interface{}{
			"correlationId": b.CorrelationID,
			"burstIndex":    index,
			"burstSize":     b.Size,
			"service":       service,
			"errorMessage":  pick(r, errorMessages),
			"errorCode":     pick(r, errorCodes),
		},
	}
}
