package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/valyala/fastjson"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	uptime := time.Since(s.start)

	s.emit(r, observability.Event{
		Timestamp: s.now(),
		Level:     observability.LevelInfo,
		Message:   "health check",
		Type:      "health",
		Attributes: map[string]interface{}{
			"uptimeSeconds":  int64(uptime.Seconds()),
			"heapAllocBytes": mem.HeapAlloc,
			"pid":            os.Getpid(),
		},
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"uptimeSeconds": int64(uptime.Seconds()),
		"memoryBytes":   mem.HeapAlloc,
		"pid":           os.Getpid(),
	})
}

func (s *Server) handleLogsGet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": store.ErrUnavailable.Error()})
		return
	}

	q := store.Query{}
	params := r.URL.Query()
	if level := params.Get("level"); level != "" {
		q.Level = observability.ParseLevel(level)
	}
	q.Type = params.Get("type")
	if since := params.Get("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be RFC 3339"})
			return
		}
		q.Since = ts
	}
	if limit := params.Get("limit"); limit != "" {
		if _, err := fmt.Sscanf(limit, "%d", &q.Limit); err != nil || q.Limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
	}

	records, err := s.store.Query(r.Context(), q)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(records),
		"logs":  records,
	})
}

func (s *Server) handleLogsPost(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": store.ErrUnavailable.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body"})
		return
	}

	event, err := parseIngestRecord(body, s.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.store.Create(r.Context(), event); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// parseIngestRecord decodes one submitted log record. The message field is
// required; level and type default to info and "ingested"; all remaining
// fields become attributes.
func parseIngestRecord(body []byte, now time.Time) (observability.Event, error) {
	var parser fastjson.Parser
	value, err := parser.ParseBytes(body)
	if err != nil {
		return observability.Event{}, fmt.Errorf("invalid JSON: %w", err)
	}
	obj, err := value.Object()
	if err != nil {
		return observability.Event{}, fmt.Errorf("expected a JSON object")
	}

	message := string(value.GetStringBytes("message"))
	if message == "" {
		return observability.Event{}, fmt.Errorf("message is required")
	}

	event := observability.Event{
		Timestamp: now,
		Level:     observability.ParseLevel(string(value.GetStringBytes("level"))),
		Message:   message,
		Type:      string(value.GetStringBytes("type")),
	}
	if event.Type == "" {
		event.Type = "ingested"
	}
	if raw := value.GetStringBytes("timestamp"); len(raw) > 0 {
		if ts, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
			event.Timestamp = ts
		}
	}

	attrs := make(map[string]interface{})
	obj.Visit(func(key []byte, v *fastjson.Value) {
		name := string(key)
		switch name {
		case "message", "level", "type", "timestamp":
			return
		}
		attrs[name] = fastjsonValue(v)
	})
	if len(attrs) > 0 {
		event.Attributes = attrs
	}
	return event, nil
}

func fastjsonValue(v *fastjson.Value) interface{} {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeNull:
		return nil
	default:
		return v.String()
	}
}
