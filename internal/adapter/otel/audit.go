package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// TracingAuditTrail wraps a domain.AuditTrail with OpenTelemetry tracing.
type TracingAuditTrail struct {
	next   domain.AuditTrail
	tracer trace.Tracer
}

// Compile-time check: TracingAuditTrail implements domain.AuditTrail.
var _ domain.AuditTrail = (*TracingAuditTrail)(nil)

// NewTracingAuditTrail creates a tracing decorator around the given audit trail.
func NewTracingAuditTrail(next domain.AuditTrail) *TracingAuditTrail {
	return &TracingAuditTrail{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (a *TracingAuditTrail) Record(ctx context.Context, event domain.TransitionEvent) error {
	ctx, span := a.tracer.Start(ctx, "AuditTrail.Record",
		trace.WithAttributes(
			attribute.String("listing.id", event.ListingID),
			attribute.String("transition.action", string(event.Action)),
			attribute.String("transition.from", string(event.FromState)),
			attribute.String("transition.to", string(event.ToState)),
		),
	)
	defer span.End()

	err := a.next.Record(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (a *TracingAuditTrail) ListByListing(ctx context.Context, listingID string, limit int) ([]domain.TransitionEvent, error) {
	ctx, span := a.tracer.Start(ctx, "AuditTrail.ListByListing",
		trace.WithAttributes(attribute.String("listing.id", listingID)),
	)
	defer span.End()

	events, err := a.next.ListByListing(ctx, listingID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(events)))
	}
	return events, err
}
