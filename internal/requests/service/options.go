// Package service holds the request use cases. Each use case orchestrates the
// aggregate and the ports: persistence runs inside the Transactor, audit and
// events follow only after it succeeded.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"solicitudes/internal/requests/audit"
	"solicitudes/internal/requests/events"
	"solicitudes/internal/requests/metrics"
	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	dErrors "solicitudes/pkg/domain-errors"
	"solicitudes/pkg/platform/sentinel"
)

const tracerName = "solicitudes/internal/requests/service"

type deps struct {
	repo    ports.Repository
	audit   ports.AuditLogger
	events  ports.EventDispatcher
	tx      ports.Transactor
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*deps)

func WithAuditLogger(l ports.AuditLogger) Option {
	return func(d *deps) {
		if l != nil {
			d.audit = l
		}
	}
}

func WithEventDispatcher(e ports.EventDispatcher) Option {
	return func(d *deps) {
		if e != nil {
			d.events = e
		}
	}
}

func WithTransactor(t ports.Transactor) Option {
	return func(d *deps) {
		if t != nil {
			d.tx = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *deps) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) {
		d.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *deps) {
		if tp != nil {
			d.tracer = tp.Tracer(tracerName)
		}
	}
}

func newDeps(repo ports.Repository, opts ...Option) deps {
	d := deps{
		repo:   repo,
		audit:  audit.Nop{},
		events: events.Nop{},
		tx:     inlineTx{},
		logger: slog.Default(),
		tracer: otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// inlineTx runs the unit of work without a transaction.
type inlineTx struct{}

func (inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// start opens the use case span and returns a finish func recording the
// outcome and duration.
func (d *deps) start(ctx context.Context, useCase string) (context.Context, func(*error)) {
	began := time.Now()
	ctx, span := d.tracer.Start(ctx, "requests."+useCase)
	return ctx, func(errp *error) {
		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(*errp)))
		}
		span.End()
		if d.metrics != nil {
			d.metrics.ObserveUseCase(useCase, began)
		}
	}
}

// dispatch publishes after persistence. A delivery failure is returned as is;
// the state change it describes is already committed.
func (d *deps) dispatch(ctx context.Context, event models.Event) error {
	err := d.events.Dispatch(ctx, event)
	if err != nil {
		d.logger.ErrorContext(ctx, "event dispatch failed",
			"event", event.Name(),
			"solicitud_id", event.AggregateID().Int64(),
			"error", err,
		)
	}
	return err
}

// translate maps the store sentinels onto domain errors. Every other error is
// returned unchanged.
func translate(err error, id models.RequestID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "request was modified concurrently, reload and retry")
	case errors.Is(err, sentinel.ErrNotFound):
		return &models.RequestNotFoundError{ID: id}
	default:
		return err
	}
}

// isInfrastructure reports whether err is not a domain or input error.
func isInfrastructure(err error) bool {
	code := dErrors.CodeOf(err)
	return code == dErrors.CodeInternal || code == dErrors.CodeConflict || code == dErrors.CodeTimeout
}
