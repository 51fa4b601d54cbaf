// Package observability configures structured logging and optional
// OpenTelemetry log export for the whole process.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies log records emitted through the OTel bridge.
const instrumentationName = "github.com/FeyP/drupal-twitter-feed"

// Log exporters accepted by Instrument.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// ShutdownFunc flushes and stops the log pipeline.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger and the W3C trace context
// propagator. With an exporter other than "none", records are also sent
// through an OpenTelemetry log pipeline. OTLP endpoints are configured with
// the standard OTEL_EXPORTER_OTLP_* variables.
func Instrument(ctx context.Context, level slog.Level, logFormat, exporter string) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	handler, err := newStdoutHandler(os.Stdout, level, logFormat)
	if err != nil {
		return nil, err
	}

	shutdown := ShutdownFunc(func(context.Context) error { return nil })

	logExporter, err := newExporter(ctx, exporter)
	if err != nil {
		return nil, err
	}
	if logExporter != nil {
		provider := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(minsev.NewLogProcessor(
				sdklog.NewBatchProcessor(logExporter),
				minSeverity(severityFor(level)),
			)),
		)
		handler = newFanoutHandler(handler, otelslog.NewHandler(instrumentationName,
			otelslog.WithLoggerProvider(provider),
		))
		shutdown = provider.Shutdown
	}

	slog.SetDefault(slog.New(newContextHandler(handler)))

	return shutdown, nil
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(w io.Writer, level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	return handler, nil
}

// newExporter returns nil for ExporterNone.
func newExporter(ctx context.Context, name string) (sdklog.Exporter, error) {
	var (
		exp sdklog.Exporter
		err error
	)
	switch strings.ToLower(name) {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		exp, err = stdoutlog.New()
	case ExporterOTLPHTTP:
		exp, err = otlploghttp.New(ctx)
	case ExporterOTLPGRPC:
		exp, err = otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported log exporter %q (expected: none, stdout, otlp-http, otlp-grpc)", name)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s log exporter: %w", name, err)
	}
	return exp, nil
}

// severityFor maps slog levels onto OTel severities. Both scales step by 4,
// with slog.LevelInfo (0) matching log.SeverityInfo (9).
func severityFor(level slog.Level) log.Severity {
	return log.Severity(int(level) + 9)
}

// minSeverity adapts a fixed severity to minsev.Severitier.
type minSeverity log.Severity

func (s minSeverity) Severity() log.Severity {
	return log.Severity(s)
}
