package observability

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventMarshalFlattensAttributes(t *testing.T) {
	event := Event{
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Level:     LevelWarn,
		Message:   "order refunded",
		Type:      "business",
		Attributes: map[string]interface{}{
			"orderId": "ord-1",
			"amount":  12.5,
			// Attribute names colliding with envelope keys must not shadow them.
			"level": "bogus",
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if payload["level"] != "warn" {
		t.Fatalf("expected level warn, got %v", payload["level"])
	}
	if payload["type"] != "business" {
		t.Fatalf("expected type business, got %v", payload["type"])
	}
	if payload["orderId"] != "ord-1" {
		t.Fatalf("expected flattened orderId attribute, got %v", payload)
	}
	if payload["amount"] != 12.5 {
		t.Fatalf("expected flattened amount attribute, got %v", payload)
	}
	if _, nested := payload["attributes"]; nested {
		t.Fatal("attributes must be flattened, not nested")
	}
}

func TestEventUnmarshalRoundTrip(t *testing.T) {
	original := Event{
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 500, time.UTC),
		Level:     LevelError,
		Message:   "cascading failure",
		Type:      "app-error",
		Attributes: map[string]interface{}{
			"correlationId": "abc",
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.Level != original.Level || decoded.Message != original.Message || decoded.Type != original.Type {
		t.Fatalf("envelope mismatch: %+v", decoded)
	}
	if decoded.Attributes["correlationId"] != "abc" {
		t.Fatalf("expected correlationId attribute, got %v", decoded.Attributes)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]Level{
		"info":     LevelInfo,
		"warn":     LevelWarn,
		"error":    LevelError,
		"critical": LevelInfo,
		"":         LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestCloneIsolatesAttributes(t *testing.T) {
	event := Event{
		Type:       "audit",
		Attributes: map[string]interface{}{"actor": "user-1001"},
	}
	clone := event.Clone()
	clone.Attributes["actor"] = "user-1002"

	if event.Attributes["actor"] != "user-1001" {
		t.Fatal("mutating a clone must not affect the original event")
	}
}
