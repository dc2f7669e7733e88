package scenario

import (
	"os"
	"runtime"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
)

// HealthReport synthesises the periodic process health snapshot. It is a
// fixed-shape generator driven by its own scheduler loop rather than a
// member of the random catalog, and it is always informational.
func HealthReport(start time.Time) observability.Event {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return observability.Event{
		Timestamp: time.Now(),
		Level:     observability.LevelInfo,
		Message:   "periodic health report",
		Type:      "health",
		Attributes: map[string]interface{}{
			"uptimeSeconds":  int64(time.Since(start).Seconds()),
			"heapAllocBytes": mem.HeapAlloc,
			"sysBytes":       mem.Sys,
			"gcCycles":       mem.NumGC,
			"goroutines":     runtime.NumGoroutine(),
			"pid":            os.Getpid(),
		},
	}
}
