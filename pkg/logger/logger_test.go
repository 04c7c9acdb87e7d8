package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsFlowIntoOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithUserID(ctx, "user-1")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["user_id"] != "user-1" {
		t.Fatalf("expected context fields in output, got %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %s", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("expected info default, got %s", got)
	}
	if got := ParseLevel("bogus"); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", got)
	}
}

func TestErrorAttachesStack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})
	logg.Error(context.Background(), "boom", nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["stack"] == nil || entry["stack"] == "" {
		t.Fatal("expected stack field on error logs")
	}
}
