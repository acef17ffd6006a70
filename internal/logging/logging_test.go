package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("Text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(Text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestInitLoggerTo(t *testing.T) {
	defer InitLogger(LevelWarn, FormatText)

	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelWarn, FormatJSON)

	ctx := context.Background()
	InfoContext(ctx, "hidden")
	ErrorContext(ctx, "shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %s", out)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %v\n%s", err, out)
	}
	if entry["msg"] != "shown" {
		t.Errorf("msg = %v, want shown", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
	ts, _ := entry["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestInitLoggerText(t *testing.T) {
	defer InitLogger(LevelWarn, FormatText)

	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelDebug, FormatText)
	LoggerFromContext(context.Background()).Debug("debug line", "n", 1)

	if !strings.Contains(buf.String(), "msg=\"debug line\"") {
		t.Errorf("text output missing message: %s", buf.String())
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetRunID(ctx); got != "" {
		t.Errorf("GetRunID(empty) = %q, want empty", got)
	}

	ctx = WithRunID(ctx, "run-42")
	if got := GetRunID(ctx); got != "run-42" {
		t.Errorf("GetRunID() = %q, want run-42", got)
	}

	out := captureLogOutput(func() {
		InfoContext(ctx, "with run")
	})
	if !strings.Contains(out, `"run_id":"run-42"`) {
		t.Errorf("expected run_id in output: %s", out)
	}
}

func TestDiagnostic(t *testing.T) {
	out := captureLogOutput(func() {
		Diagnostic("invalid-indicator", "245", "indicator 1 is 0x8c", "byte", 0x8c)
	})

	for _, want := range []string{
		`"msg":"marc_diagnostic"`,
		`"kind":"invalid-indicator"`,
		`"tag":"245"`,
		`"level":"WARN"`,
		`"byte":140`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestRecordErrorAndSummary(t *testing.T) {
	ctx := WithRunID(context.Background(), "r1")
	out := captureLogOutput(func() {
		RecordError(ctx, "test.dat", 3, errors.New("malformed directory"))
		BatchSummary(ctx, "convert", 10, 1, 1500*time.Millisecond, "sources", 2)
	})

	for _, want := range []string{
		`"msg":"record_error"`,
		`"source":"test.dat"`,
		`"record":3`,
		`"error":"malformed directory"`,
		`"msg":"batch_summary"`,
		`"records":10`,
		`"failures":1`,
		`"duration_ms":1500`,
		`"sources":2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
