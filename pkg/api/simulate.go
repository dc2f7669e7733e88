package api

import (
	"context"
	"net/http"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/severity"
)

// The simulate handlers are thin callers into the same classification and
// event-shape machinery the continuous engine uses. Their response
// contracts are fixed and hold regardless of sink acceptance.

func (s *Server) handleSimulateError(w http.ResponseWriter, r *http.Request) {
	s.emit(r, observability.Event{
		Timestamp: s.now(),
		Level:     s.classifier.Classify(severity.Signal{StatusCode: http.StatusInternalServerError}),
		Message:   "simulated critical application error",
		Type:      "app-error",
		Attributes: map[string]interface{}{
			"errorCode": "ERR_SIM_500",
			"critical":  true,
			"simulated": true,
		},
	})

	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":     "simulated critical application error",
		"errorCode": "ERR_SIM_500",
	})
}

func (s *Server) handleSimulateWarning(w http.ResponseWriter, r *http.Request) {
	usage := 85 + s.randInt63n(11)
	s.emit(r, observability.Event{
		Timestamp: s.now(),
		Level:     s.classifier.Classify(severity.Signal{Outcome: "degraded"}),
		Message:   "simulated memory pressure",
		Type:      "performance",
		Attributes: map[string]interface{}{
			"metric":    "memory",
			"value":     usage,
			"unit":      "percent",
			"simulated": true,
		},
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "warning emitted",
		"memoryUsagePercent": usage,
	})
}

func (s *Server) handleSimulateAuthFail(w http.ResponseWriter, r *http.Request) {
	s.emit(r, observability.Event{
		Timestamp: s.now(),
		Level:     s.classifier.Classify(severity.Signal{StatusCode: http.StatusUnauthorized}),
		Message:   "simulated authentication failure",
		Type:      "security",
		Attributes: map[string]interface{}{
			"event":     "failed-login",
			"reason":    "invalid-credentials",
			"remote":    r.RemoteAddr,
			"simulated": true,
		},
	})

	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error": "authentication failed",
	})
}

// handleSimulateSlow suspends for a randomized delay before answering, then
// reports the realized duration. Delays beyond SlowWarnThreshold flag the
// emitted warning as having exceeded the threshold.
func (s *Server) handleSimulateSlow(w http.ResponseWriter, r *http.Request) {
	delay := s.drawDelay()
	s.sleepWithContext(r.Context(), delay)

	s.emit(r, observability.Event{
		Timestamp: s.now(),
		Level:     observability.LevelWarn,
		Message:   "simulated slow operation completed",
		Type:      "performance",
		Attributes: map[string]interface{}{
			"durationMs":        delay.Milliseconds(),
			"exceededThreshold": delay > SlowWarnThreshold,
			"thresholdMs":       SlowWarnThreshold.Milliseconds(),
			"simulated":         true,
		},
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "completed",
		"durationMs": delay.Milliseconds(),
	})
}

// sleepWithContext suspends for d through the injectable sleep function,
// returning early if the request is cancelled mid-wait.
func (s *Server) sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	done := make(chan struct{})
	go func() {
		s.sleep(d)
		close(done)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
}
