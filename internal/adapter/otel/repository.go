package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sellerdesk/listingflow/internal/domain"
)

const tracerName = "github.com/sellerdesk/listingflow/internal/adapter/otel"

// TracingRepository wraps a domain.ListingRepository with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and records
// errors.
type TracingRepository struct {
	next   domain.ListingRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.ListingRepository.
var _ domain.ListingRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.ListingRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, listing domain.Listing) error {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.Create",
		trace.WithAttributes(
			attribute.String("listing.id", listing.ID),
			attribute.String("listing.slug", listing.Slug),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, listing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.GetByID",
		trace.WithAttributes(attribute.String("listing.id", id)),
	)
	defer span.End()

	listing, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return listing, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Listing, int, error) {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.State != nil {
		span.SetAttributes(attribute.String("filter.state", string(*filter.State)))
	}

	listings, total, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("result.count", len(listings)),
			attribute.Int("result.total", total),
		)
	}
	return listings, total, err
}

func (r *TracingRepository) Count(ctx context.Context, filter domain.ListFilter) (int, error) {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.Count")
	defer span.End()

	if filter.State != nil {
		span.SetAttributes(attribute.String("filter.state", string(*filter.State)))
	}

	n, err := r.next.Count(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return n, err
}

func (r *TracingRepository) UpdateFrom(ctx context.Context, prior domain.State, listing domain.Listing) error {
	ctx, span := r.tracer.Start(ctx, "ListingRepository.UpdateFrom",
		trace.WithAttributes(
			attribute.String("listing.id", listing.ID),
			attribute.String("listing.state.prior", string(prior)),
			attribute.String("listing.state.next", string(listing.State)),
		),
	)
	defer span.End()

	err := r.next.UpdateFrom(ctx, prior, listing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
