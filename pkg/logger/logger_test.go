package logger

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("verbose", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := New(level, "text")
		if err != nil {
			t.Fatalf("New(%q): %v", level, err)
		}
		_ = log.Sync()
	}
}

func TestConvertToFields(t *testing.T) {
	fields := convertToFields([]interface{}{
		"name", "midnights",
		"count", 3,
		"took", 2 * time.Second,
		"error", errors.New("boom"),
		"dangling",
	})

	if len(fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(fields))
	}
	if fields[0].Type != zapcore.StringType || fields[0].String != "midnights" {
		t.Errorf("unexpected string field: %+v", fields[0])
	}
	if fields[1].Type != zapcore.Int64Type || fields[1].Integer != 3 {
		t.Errorf("unexpected int field: %+v", fields[1])
	}
	if fields[2].Type != zapcore.DurationType {
		t.Errorf("expected duration field, got %v", fields[2].Type)
	}
	if fields[3].Key != "error" || fields[3].Type != zapcore.ErrorType {
		t.Errorf("unexpected error field: %+v", fields[3])
	}
	if fields[4].Key != "dangling" {
		t.Errorf("expected dangling key to be kept, got %q", fields[4].Key)
	}
}

func TestConvertToFieldsEmpty(t *testing.T) {
	if fields := convertToFields(nil); fields != nil {
		t.Errorf("expected nil, got %v", fields)
	}
}
