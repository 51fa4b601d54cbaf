package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestRequestIDGeneration(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantKeep bool
	}{
		{"client id kept", "abc-123", true},
		{"missing id generated", "", false},
		{"id with spaces replaced", "abc 123", false},
		{"overlong id replaced", strings.Repeat("a", maxRequestIDLength+1), false},
		{"control characters replaced", "abc\x00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RequestIDGeneration(RequestIDPropagation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = RequestIDFromContext(r.Context())
			})))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got == "" {
				t.Fatal("no request id in context")
			}
			if tt.wantKeep && got != tt.header {
				t.Errorf("request id = %q, want %q", got, tt.header)
			}
			if !tt.wantKeep && got == tt.header {
				t.Errorf("request id %q should have been replaced", got)
			}
			if h := rec.Header().Get(RequestIDHeader); h != got {
				t.Errorf("response header = %q, want %q", h, got)
			}
		})
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id, ok := RequestIDFromContext(req.Context()); ok {
		t.Errorf("unexpected request id %q", id)
	}
}

func TestTraceContextExtraction(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var spanCtx trace.SpanContext
	h := TraceContextExtraction(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spanCtx = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !spanCtx.IsValid() {
		t.Fatal("span context not extracted")
	}
	if got := spanCtx.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id = %q", got)
	}
	if got := spanCtx.SpanID().String(); got != "00f067aa0ba902b7" {
		t.Errorf("span id = %q", got)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetLogAttrs(r.Context(), slog.String("block_id", "front"))
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/blocks/front", nil))

	out := buf.String()
	if !strings.Contains(out, "/v1/blocks/front") {
		t.Errorf("log missing path: %s", out)
	}
	if !strings.Contains(out, "block_id") {
		t.Errorf("log missing handler attrs: %s", out)
	}
}

func TestLogging_SkipsHealthyProbes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/liveness", nil))

	if buf.Len() != 0 {
		t.Errorf("expected no log for healthy probe, got %s", buf.String())
	}
}
