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

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

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
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentApp).WithComponent(ComponentStore)

	l.Info("Store initialized", FieldCount, 3)

	out := buf.String()
	if !strings.Contains(out, "component=store") {
		t.Errorf("missing component in %q", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("missing field in %q", out)
	}
	if l.Component() != ComponentStore {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithTransaction("t1", "expense", "12.5", "Food").
		WithKey("transactions").
		WithError(errors.New("boom")).
		WithError(nil).
		WithOperation(OpPersist)

	if fields[FieldError] != "boom" {
		t.Errorf("error field = %v", fields[FieldError])
	}
	if got := len(fields.ToSlice()); got != len(fields)*2 {
		t.Errorf("ToSlice() length = %d, want %d", got, len(fields)*2)
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("fallback component = %q, want unknown", got.Component())
	}

	var buf bytes.Buffer
	base := newBufferLogger(&buf, ComponentHTTP)

	var seen *Logger
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			seen.InfoContext(r.Context(), "handled")
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("handler did not receive the request logger")
	}
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Errorf("request id missing from %q", buf.String())
	}
}

func TestStructuredLoggerHTTPEndLevel(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentHTTP))
	r := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)

	sl.LogHTTPEnd(context.Background(), r, http.StatusUnprocessableEntity, 3, "203.0.113.1")
	sl.LogHTTPEnd(context.Background(), r, http.StatusInternalServerError, 3, "203.0.113.1")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "level=ERROR") {
		t.Errorf("expected WARN and ERROR entries, got %q", out)
	}
}
