package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInitWriter_EmitsServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := InitWriter(&buf, "signalserver", slog.LevelInfo)
	l.Info("hello", LogWithTrace(WithTraceID(context.Background(), "BTC-1"))...)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if rec["service"] != "signalserver" || rec["trace_id"] != "BTC-1" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line written at info level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTraceID_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if tid := TraceID(ctx); tid != "" {
		t.Errorf("expected empty trace id, got %q", tid)
	}

	ctx = WithTraceID(ctx, "AAPL-42")
	if tid := TraceID(ctx); tid != "AAPL-42" {
		t.Errorf("expected 'AAPL-42', got %q", tid)
	}
}

func TestGenerateTraceID(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)
	tid := GenerateTraceID("BTCUSD", ts)

	if !strings.HasPrefix(tid, "BTCUSD-") {
		t.Errorf("expected trace id to start with 'BTCUSD-', got %s", tid)
	}
	if !strings.Contains(tid, "123456789") {
		t.Errorf("expected trace id to contain nanoseconds, got %s", tid)
	}
	if got := GenerateTraceID("", ts); !strings.HasPrefix(got, "signal-") {
		t.Errorf("empty symbol: got %s", got)
	}
}

func TestLogWithTrace(t *testing.T) {
	if attrs := LogWithTrace(context.Background()); attrs != nil {
		t.Errorf("expected nil attrs when no trace id, got %v", attrs)
	}
	if attrs := LogWithTrace(WithTraceID(context.Background(), "abc-123")); len(attrs) != 1 {
		t.Fatalf("expected one attr, got %v", attrs)
	}
}
