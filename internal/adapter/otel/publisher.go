package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// TracingPublisher wraps a domain.HookPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.HookPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.HookPublisher.
var _ domain.HookPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.HookPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.TransitionEvent, listing domain.Listing) error {
	ctx, span := p.tracer.Start(ctx, "HookPublisher.Publish",
		trace.WithAttributes(
			attribute.String("transition.action", string(event.Action)),
			attribute.String("listing.id", listing.ID),
			attribute.String("listing.state", string(listing.State)),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, event, listing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
