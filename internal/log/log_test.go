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

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: ComponentApp, Output: &buf}), &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.WithComponent(ComponentAuth).Info("registered", FieldEmail, "ann@example.com")

	out := buf.String()
	if !strings.Contains(out, "component=auth") {
		t.Errorf("missing component tag: %s", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Errorf("component must be logged once: %s", out)
	}
	if !strings.Contains(out, "email=ann@example.com") {
		t.Errorf("missing field: %s", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestMiddlewareAndRequestID(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req_42") {
		t.Errorf("request id not propagated: %s", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected default logger: %+v", l)
	}
}

func TestStructuredLoggerHTTPEndLevels(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)
	sl := NewStructuredLogger(logger)
	r := httptest.NewRequest(http.MethodGet, "/api/user/getUsers", nil)

	sl.LogHTTPEnd(context.Background(), r, 200, 3, "1.2.3.4")
	sl.LogHTTPEnd(context.Background(), r, 404, 3, "1.2.3.4")
	sl.LogHTTPEnd(context.Background(), r, 500, 3, "1.2.3.4")

	out := buf.String()
	for _, want := range []string{"level=INFO", "level=WARN", "level=ERROR", "status_code=404", "success=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}

func TestStructuredLoggerError(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	NewStructuredLogger(logger).LogError(context.Background(), "save failed", errors.New("boom"), ComponentStorage, OpCreate, nil)

	out := buf.String()
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "operation=create") || !strings.Contains(out, "component=storage") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestFieldsSkipComponent(t *testing.T) {
	s := NewFields().WithComponent("x").WithEmail("a").ToSlice()
	if len(s) != 2 || s[0] != FieldEmail {
		t.Errorf("ToSlice() = %v", s)
	}
}
