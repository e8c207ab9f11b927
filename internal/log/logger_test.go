package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelDebug, ComponentApp).WithComponent(ComponentReminder)

	l.Info("reminder sent", "message", "drink water")

	out := buf.String()
	if !strings.Contains(out, "component=reminder") {
		t.Errorf("expected component in output, got %q", out)
	}
	if !strings.Contains(out, `message="drink water"`) {
		t.Errorf("expected message field in output, got %q", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelWarn, ComponentApp)

	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn line missing: %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelInfo, ComponentHTTP).With(FieldRequestID, "req-1")

	got := FromContext(NewContext(context.Background(), l))
	if got.Component() != ComponentHTTP {
		t.Fatalf("component = %q, want %q", got.Component(), ComponentHTTP)
	}
	got.Info("inside")
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("expected request id in output, got %q", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger: %+v", l)
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusUnprocessableEntity, "level=WARN"},
		{http.StatusBadGateway, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(NewText(&buf, slog.LevelInfo, ComponentHTTP))
		sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodPost, "/water", nil), tt.status, 3, "10.0.0.1")
		if !strings.Contains(buf.String(), tt.level) {
			t.Errorf("status %d: expected %s in %q", tt.status, tt.level, buf.String())
		}
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(NewText(&buf, slog.LevelInfo, ComponentApp))

	sl.LogError(context.Background(), "save failed", errors.New("disk full"), ComponentStorage, OpCreate, nil)

	out := buf.String()
	for _, want := range []string{`error="disk full"`, "operation=create", "component=storage"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}
