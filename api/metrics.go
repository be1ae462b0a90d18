package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	commandsRoute    = "/api/commands"
	commandsSpanName = "zentask.commands.request"
)

// commandRequestMetrics accumulates per-request observations on the
// command intake path and flushes them as one structured log event plus
// one trace span.
type commandRequestMetrics struct {
	logger       *log.Logger
	span         trace.Span
	start        time.Time
	commandCount int
	errorStage   string
}

func newCommandRequestMetrics(ctx context.Context, logger *log.Logger) (*commandRequestMetrics, context.Context) {
	m := &commandRequestMetrics{
		logger: logger,
		start:  time.Now(),
	}
	spanCtx, span := otel.Tracer("zentask/api").Start(ctx, commandsSpanName)
	m.span = span
	return m, spanCtx
}

func (m *commandRequestMetrics) SetCommandCount(count int) {
	if count < 0 {
		count = 0
	}
	m.commandCount = count
}

func (m *commandRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *commandRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	totalMS := durationToMillis(time.Since(m.start))

	if m.span != nil {
		m.span.SetAttributes(
			attribute.String("http.route", commandsRoute),
			attribute.Int("http.status_code", status),
			attribute.Int("zentask.commands.count", m.commandCount),
			attribute.Float64("zentask.commands.total_ms", totalMS),
		)
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String("zentask.commands.error_stage", m.errorStage))
		}
		if err != nil {
			m.span.SetStatus(codes.Error, err.Error())
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"route":    commandsRoute,
		"status":   status,
		"total_ms": totalMS,
		"commands": m.commandCount,
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("commands.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
