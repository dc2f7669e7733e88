package observability

import (
	"encoding/json"
	"fmt"
	"time"
)

// Level represents the severity of an emitted event.
type Level string

const (
	// LevelInfo represents informational events that describe normal behaviour.
	LevelInfo Level = "info"
	// LevelWarn represents conditions that may require operator attention.
	LevelWarn Level = "warn"
	// LevelError captures failures that prevent progress.
	LevelError Level = "error"
)

// Valid reports whether the level is one of the three supported values.
func (l Level) Valid() bool {
	switch l {
	case LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}

// ParseLevel maps a string onto a Level, defaulting unknown input to info.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Event models one structured log entry produced by the synthesis engine
// or by the request instrumentation layer.
//
// On the wire the attribute map is flattened into the top-level JSON object
// alongside the reserved envelope keys, so a user-activity event serialises
// as {"level":"info","timestamp":...,"message":...,"type":"user-activity","userId":...}.
type Event struct {
	Timestamp  time.Time
	Level      Level
	Message    string
	Type       string
	Attributes map[string]interface{}
}

// reserved keys are owned by the envelope; attribute values under these
// names are dropped during serialisation instead of shadowing the envelope.
var reservedKeys = map[string]struct{}{
	"level":     {},
	"timestamp": {},
	"message":   {},
	"type":      {},
}

// Clone returns a shallow copy of the event and its attribute map to avoid
// data races when consumers mutate their view of the metadata.
func (e Event) Clone() Event {
	clone := e
	if len(e.Attributes) > 0 {
		copied := make(map[string]interface{}, len(e.Attributes))
		for k, v := range e.Attributes {
			copied[k] = v
		}
		clone.Attributes = copied
	}
	return clone
}

// MarshalJSON flattens the attribute map into the top-level object.
func (e Event) MarshalJSON() ([]byte, error) {
	payload := make(map[string]interface{}, len(e.Attributes)+4)
	for k, v := range e.Attributes {
		if _, ok := reservedKeys[k]; ok {
			continue
		}
		payload[k] = v
	}
	payload["level"] = e.Level
	payload["timestamp"] = e.Timestamp.Format(time.RFC3339Nano)
	payload["message"] = e.Message
	payload["type"] = e.Type
	return json.Marshal(payload)
}

// UnmarshalJSON reverses the flattened wire shape.
func (e *Event) UnmarshalJSON(data []byte) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	if raw, ok := payload["timestamp"].(string); ok {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		e.Timestamp = ts
	}
	if raw, ok := payload["level"].(string); ok {
		e.Level = ParseLevel(raw)
	}
	if raw, ok := payload["message"].(string); ok {
		e.Message = raw
	}
	if raw, ok := payload["type"].(string); ok {
		e.Type = raw
	}

	for key := range reservedKeys {
		delete(payload, key)
	}
	if len(payload) > 0 {
		e.Attributes = payload
	} else {
		e.Attributes = nil
	}
	return nil
}
