package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter, func()) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	return tp, exporter, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
		otel.SetTracerProvider(prev)
	}
}

func TestCommandRequestMetricsEmitsLogAndSpan(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tp, exporter, restore := setupTestTracer(t)
	defer restore()

	metrics, spanCtx := newCommandRequestMetrics(context.Background(), logger)
	if spanCtx == nil {
		t.Fatal("expected span context")
	}
	metrics.SetCommandCount(3)
	metrics.Log(http.StatusOK, nil)

	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Message != "commands.request.metrics" {
		t.Fatalf("unexpected message: %s", entry.Message)
	}
	if entry.Data["commands"] != 3 {
		t.Fatalf("unexpected command count: %v", entry.Data["commands"])
	}
	if entry.Data["status"] != http.StatusOK {
		t.Fatalf("unexpected status: %v", entry.Data["status"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != commandsSpanName {
		t.Fatalf("unexpected span name: %s", spans[0].Name)
	}
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["http.route"] != commandsRoute {
		t.Fatalf("unexpected route attribute: %v", attrs["http.route"])
	}
	if attrs["zentask.commands.count"] != int64(3) {
		t.Fatalf("unexpected count attribute: %v", attrs["zentask.commands.count"])
	}
}

func TestCommandRequestMetricsRecordsErrorStage(t *testing.T) {
	logger, hook := test.NewNullLogger()
	_, exporter, restore := setupTestTracer(t)
	defer restore()

	metrics, _ := newCommandRequestMetrics(context.Background(), logger)
	metrics.SetErrorStage("decode")
	metrics.Log(http.StatusBadRequest, errors.New("invalid body"))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["error_stage"] != "decode" {
		t.Fatalf("unexpected error stage: %v", entry.Data["error_stage"])
	}
	if entry.Data["error"] != "invalid body" {
		t.Fatalf("unexpected error field: %v", entry.Data["error"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
}
