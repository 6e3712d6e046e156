// Package probe runs the database round trip behind GET / and turns every
// outcome, good or bad, into a ProbeResult.
package probe

import (
	"context"
	"dbprobe/internal/config"
	"dbprobe/internal/database"
	"dbprobe/internal/models"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoConnectionString is reported when the variant's connection key is unset.
var ErrNoConnectionString = errors.New("connection string is not configured")

// Outcome classifies a probe run.
type Outcome string

const (
	OutcomeConnected      Outcome = "connected"
	OutcomeConnectFailure Outcome = "connect_failure"
	OutcomeQueryFailure   Outcome = "query_failure"
)

// Handler runs the probe. It holds no per-request state and is safe for
// concurrent use.
type Handler struct {
	variant    Variant
	source     config.Source
	connector  database.Connector
	timeout    time.Duration
	dateLayout string
	now        func() time.Time
	logger     *slog.Logger
	tracer     trace.Tracer
	runs       metric.Int64Counter
}

// Option configures a Handler.
type Option func(*Handler)

// WithTimeout bounds each run. Zero leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithDateLayout sets the time.Format layout for CurrentDate.
func WithDateLayout(layout string) Option {
	return func(h *Handler) { h.dateLayout = layout }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithLogger sets the logger used for per-run debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler creates a probe handler.
func NewHandler(variant Variant, source config.Source, connector database.Connector, opts ...Option) *Handler {
	h := &Handler{
		variant:    variant,
		source:     source,
		connector:  connector,
		dateLayout: models.DefaultDateLayout,
		now:        time.Now,
		logger:     slog.Default(),
		tracer:     otel.Tracer("dbprobe/probe"),
	}
	for _, opt := range opts {
		opt(h)
	}

	runs, err := otel.Meter("dbprobe/probe").Int64Counter(
		"probe.runs",
		metric.WithDescription("Number of probe runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		h.logger.Warn("Failed to create probe run counter", "error", err)
		runs = noop.Int64Counter{}
	}
	h.runs = runs

	return h
}

// Run performs one probe. It never fails: every error ends up in Status.
func (h *Handler) Run(ctx context.Context) models.ProbeResult {
	ctx, span := h.tracer.Start(ctx, "probe.Run",
		trace.WithAttributes(attribute.String("probe.variant", h.variant.Kind.String())),
	)
	defer span.End()

	deploymentMethod := h.lookup(h.variant.DeploymentKey)

	start := time.Now()
	status, outcome := h.check(ctx)

	attrs := metric.WithAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.String("variant", h.variant.Kind.String()),
	)
	h.runs.Add(ctx, 1, attrs)
	span.SetAttributes(attribute.String("probe.outcome", string(outcome)))

	h.logger.DebugContext(ctx, "Probe completed",
		"outcome", outcome,
		"variant", h.variant.Kind.String(),
		"duration", time.Since(start),
	)

	if strings.TrimSpace(status) == "" {
		status = string(outcome)
	}

	return models.NewProbeResult(h.now(), h.dateLayout, status, deploymentMethod)
}

// lookup reads a key from the source; absent or failing lookups yield "".
func (h *Handler) lookup(key string) (value string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn("Configuration lookup panicked", "key", key, "panic", r)
			value = ""
		}
	}()
	if h.source == nil {
		return ""
	}
	v, _ := h.source.Lookup(key)
	return strings.TrimSpace(v)
}

// check opens a session, runs the variant's query and words the result.
func (h *Handler) check(ctx context.Context) (status string, outcome Outcome) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	// A panicking driver is reported against the phase it happened in.
	outcome = OutcomeConnectFailure
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn("Probe panicked", "panic", r, "outcome", outcome)
			err := fmt.Errorf("%v", r)
			if outcome == OutcomeConnectFailure {
				status = h.word(OutcomeConnectFailure, errorText(err))
			} else {
				outcome = OutcomeQueryFailure
				status = h.word(OutcomeQueryFailure, errorText(err))
			}
		}
	}()

	dsn := h.lookup(h.variant.ConnectionKey)
	if dsn == "" {
		return h.word(OutcomeConnectFailure, errorText(ErrNoConnectionString)), OutcomeConnectFailure
	}

	session, err := h.connector.Connect(ctx, dsn)
	if err != nil {
		return h.word(OutcomeConnectFailure, errorText(err)), OutcomeConnectFailure
	}
	defer func() {
		if err := session.Close(); err != nil {
			h.logger.DebugContext(ctx, "Failed to close probe session", "error", err)
		}
	}()

	outcome = OutcomeQueryFailure
	row, err := session.QueryFirst(ctx, h.variant.Query)
	if err != nil {
		return h.word(OutcomeQueryFailure, errorText(err)), OutcomeQueryFailure
	}

	summary, err := h.variant.summarize(row)
	if err != nil {
		return h.word(OutcomeQueryFailure, errorText(err)), OutcomeQueryFailure
	}

	return h.word(OutcomeConnected, summary), OutcomeConnected
}

// word renders the status for outcome. A configured template that renders
// blank gives way to the built-in wording, so Status is never empty.
func (h *Handler) word(outcome Outcome, value any) string {
	configured, builtin := h.variant.templateFor(outcome)
	for _, tpl := range []string{configured, builtin} {
		if tpl == "" {
			continue
		}
		if status := fmt.Sprintf(tpl, value); strings.TrimSpace(status) != "" {
			return status
		}
	}
	return string(outcome)
}

// errorText keeps Status non-empty even for errors with no message.
func errorText(err error) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "unknown error"
}
