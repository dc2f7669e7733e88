package observability

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapSinkLevelMapping(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	sink, err := NewZapSink(zap.New(core))
	if err != nil {
		t.Fatalf("new zap sink: %v", err)
	}

	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: ts, Level: LevelInfo, Message: "info message", Type: "http"},
		{Timestamp: ts, Level: LevelWarn, Message: "warn message", Type: "security"},
		{Timestamp: ts, Level: LevelError, Message: "error message", Type: "app-error",
			Attributes: map[string]interface{}{"errorCode": "ERR_X"}},
	}
	for _, event := range events {
		if err := sink.Emit(context.Background(), event); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	entries := observed.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}

	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, entry := range entries {
		if entry.Level != wantLevels[i] {
			t.Fatalf("entry %d has level %s, want %s", i, entry.Level, wantLevels[i])
		}
	}

	fields := entries[2].ContextMap()
	if fields["type"] != "app-error" {
		t.Fatalf("expected type field, got %+v", fields)
	}
	if fields["errorCode"] != "ERR_X" {
		t.Fatalf("expected attribute field, got %+v", fields)
	}
	if _, ok := fields["eventTime"]; !ok {
		t.Fatalf("expected eventTime field, got %+v", fields)
	}
}

func TestNewZapSinkRequiresLogger(t *testing.T) {
	if _, err := NewZapSink(nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
