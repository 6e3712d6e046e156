package observability

import (
	"context"
	"dbprobe/internal/database"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedConnector wraps a database.Connector with OpenTelemetry
// tracing and metrics. Every session it hands out is instrumented too.
type InstrumentedConnector struct {
	inner    database.Connector
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	open     metric.Int64UpDownCounter
}

// NewInstrumentedConnector records a span, a latency sample and, on failure,
// an error count for each connect, query and close. The open sessions gauge
// returns to zero once every session has been closed.
func NewInstrumentedConnector(inner database.Connector) (*InstrumentedConnector, error) {
	tracer := otel.Tracer("dbprobe/database")
	meter := otel.Meter("dbprobe/database")

	duration, err := meter.Float64Histogram(
		"db.client.operation.duration",
		metric.WithDescription("Duration of probe database operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"db.client.operation.errors",
		metric.WithDescription("Number of failed probe database operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	open, err := meter.Int64UpDownCounter(
		"db.client.sessions.open",
		metric.WithDescription("Probe database sessions currently open"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedConnector{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
		open:     open,
	}, nil
}

func (c *InstrumentedConnector) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("db.operation.name", operation),
		}, attrs...)...),
	)
}

func (c *InstrumentedConnector) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	c.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		c.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// Connect opens a session through the wrapped connector. The connection
// string is never recorded; it usually carries credentials.
func (c *InstrumentedConnector) Connect(ctx context.Context, dsn string) (database.Session, error) {
	spanCtx, span := c.startSpan(ctx, "connect")
	start := time.Now()
	session, err := c.inner.Connect(spanCtx, dsn)
	c.record(spanCtx, span, "connect", start, err)
	if err != nil {
		return nil, err
	}

	c.open.Add(ctx, 1)
	return &instrumentedSession{
		inner:     session,
		connector: c,
		parent:    context.WithoutCancel(ctx),
	}, nil
}

type instrumentedSession struct {
	inner     database.Session
	connector *InstrumentedConnector
	// parent keeps the close span under the caller's trace.
	parent context.Context
}

func (s *instrumentedSession) QueryFirst(ctx context.Context, query string) ([]any, error) {
	ctx, span := s.connector.startSpan(ctx, "query", attribute.String("db.query.text", query))
	start := time.Now()
	row, err := s.inner.QueryFirst(ctx, query)
	if err == nil {
		span.SetAttributes(attribute.Int("db.response.columns", len(row)))
	}
	s.connector.record(ctx, span, "query", start, err)
	return row, err
}

func (s *instrumentedSession) Close() error {
	ctx, span := s.connector.startSpan(s.parent, "close")
	start := time.Now()
	err := s.inner.Close()
	s.connector.record(ctx, span, "close", start, err)
	s.connector.open.Add(ctx, -1)
	return err
}
