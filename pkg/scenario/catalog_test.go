package scenario

import (
	"math/rand"
	"testing"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/severity"
)

func TestDefaultRegistryRequiresClassifier(t *testing.T) {
	if _, err := DefaultRegistry(nil); err == nil {
		t.Fatal("expected error without classifier")
	}
}

func TestDefaultRegistryCatalog(t *testing.T) {
	reg, err := DefaultRegistry(severity.New())
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	want := []string{
		NameAppError,
		NameAudit,
		NameBusiness,
		NameDatabase,
		NameHTTP,
		NameNotification,
		NamePerformance,
		NameSecurity,
		NameUserActivity,
		NameWorker,
	}
	names := reg.Names()
	if len(names) != len(want) {
		t.Fatalf("expected %d scenarios, got %d: %v", len(want), len(names), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected catalog %v, got %v", want, names)
		}
	}
}

func TestCatalogScenariosProduceWellFormedEvents(t *testing.T) {
	reg, err := DefaultRegistry(severity.New())
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	r := rand.New(rand.NewSource(7))
	for _, name := range reg.Names() {
		s, ok := reg.Get(name)
		if !ok {
			t.Fatalf("scenario %s not found", name)
		}
		for i := 0; i < 50; i++ {
			event := s.Generate(r)
			if event.Type != name {
				t.Fatalf("%s: expected type %q, got %q", name, name, event.Type)
			}
			if !event.Level.Valid() {
				t.Fatalf("%s: invalid level %q", name, event.Level)
			}
			if event.Message == "" {
				t.Fatalf("%s: empty message", name)
			}
			if event.Timestamp.IsZero() {
				t.Fatalf("%s: zero timestamp", name)
			}
			if len(event.Attributes) == 0 {
				t.Fatalf("%s: expected attributes", name)
			}
		}
	}
}

func TestCatalogFixedLevelScenarios(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	for i := 0; i < 50; i++ {
		if event := userActivity(r); event.Level != observability.LevelInfo {
			t.Fatalf("user activity should always be info, got %s", event.Level)
		}
		if event := securityEvent(r); event.Level != observability.LevelWarn {
			t.Fatalf("security events should always be warnings, got %s", event.Level)
		}
		if event := auditTrail(r); event.Level != observability.LevelInfo {
			t.Fatalf("audit trail should always be info, got %s", event.Level)
		}
	}
}

func TestApplicationErrorAlwaysError(t *testing.T) {
	gen := applicationError(severity.New())
	r := rand.New(rand.NewSource(9))
	for i := 0; i < 50; i++ {
		event := gen(r)
		if event.Level != observability.LevelError {
			t.Fatalf("application errors must classify as error, got %s", event.Level)
		}
		if _, ok := event.Attributes["errorCode"]; !ok {
			t.Fatalf("expected errorCode attribute, got %+v", event.Attributes)
		}
	}
}

func TestPerformanceSampleThreshold(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	sawInfo, sawWarn := false, false
	for i := 0; i < 500; i++ {
		event := performanceSample(r)
		value, ok := event.Attributes["value"].(int)
		if !ok {
			t.Fatalf("expected integer value attribute, got %+v", event.Attributes)
		}
		switch {
		case value > 85 && event.Level != observability.LevelWarn:
			t.Fatalf("utilisation %d should warn, got %s", value, event.Level)
		case value <= 85 && event.Level != observability.LevelInfo:
			t.Fatalf("utilisation %d should be info, got %s", value, event.Level)
		}
		if event.Level == observability.LevelInfo {
			sawInfo = true
		} else {
			sawWarn = true
		}
	}
	if !sawInfo || !sawWarn {
		t.Fatal("expected the sample range to cover both sides of the threshold")
	}
}

func TestBurstEventsShareCorrelationID(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	burst := NewBurst(r)

	if burst.Size < MinBurstSize || burst.Size > MaxBurstSize {
		t.Fatalf("burst size %d outside [%d, %d]", burst.Size, MinBurstSize, MaxBurstSize)
	}
	if burst.CorrelationID == "" {
		t.Fatal("expected correlation identifier")
	}

	detected := burst.Detected()
	if detected.Level != observability.LevelWarn {
		t.Fatalf("burst announcement should warn, got %s", detected.Level)
	}
	if detected.Attributes["correlationId"] != burst.CorrelationID {
		t.Fatalf("announcement correlationId mismatch: %+v", detected.Attributes)
	}

	for i := 0; i < burst.Size; i++ {
		failure := burst.Failure(r, i)
		if failure.Level != observability.LevelError {
			t.Fatalf("cascading failure %d should be an error, got %s", i, failure.Level)
		}
		if failure.Attributes["correlationId"] != burst.CorrelationID {
			t.Fatalf("failure %d correlationId mismatch: %+v", i, failure.Attributes)
		}
		if failure.Attributes["burstIndex"] != i {
			t.Fatalf("failure %d carries index %v", i, failure.Attributes["burstIndex"])
		}
	}
}

func TestOverlappingBurstsGetDistinctCorrelationIDs(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		burst := NewBurst(r)
		if seen[burst.CorrelationID] {
			t.Fatalf("correlation identifier %s reused", burst.CorrelationID)
		}
		seen[burst.CorrelationID] = true
	}
}

func TestHealthReportShape(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	event := HealthReport(start)

	if event.Type != "health" {
		t.Fatalf("expected health event type, got %q", event.Type)
	}
	if event.Level != observability.LevelInfo {
		t.Fatalf("expected info level, got %s", event.Level)
	}
	uptime, ok := event.Attributes["uptimeSeconds"].(int64)
	if !ok {
		t.Fatalf("expected uptimeSeconds attribute, got %+v", event.Attributes)
	}
	if uptime < 89 || uptime > 120 {
		t.Fatalf("implausible uptime %d for a 90s old process", uptime)
	}
	for _, key := range []string{"heapAllocBytes", "sysBytes", "gcCycles", "goroutines", "pid"} {
		if _, ok := event.Attributes[key]; !ok {
			t.Fatalf("missing %s attribute: %+v", key, event.Attributes)
		}
	}
}
