package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/sellerdesk/listingflow/internal/adapter/otel"
	"github.com/sellerdesk/listingflow/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type mockRepo struct {
	listings map[string]domain.Listing
}

func newMockRepo() *mockRepo {
	return &mockRepo{listings: make(map[string]domain.Listing)}
}

func (m *mockRepo) Create(_ context.Context, l domain.Listing) error {
	m.listings[l.ID] = l
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return l, nil
}

func (m *mockRepo) List(_ context.Context, _ domain.ListFilter) ([]domain.Listing, int, error) {
	out := make([]domain.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		out = append(out, l)
	}
	return out, len(out), nil
}

func (m *mockRepo) Count(_ context.Context, _ domain.ListFilter) (int, error) {
	return len(m.listings), nil
}

func (m *mockRepo) UpdateFrom(_ context.Context, prior domain.State, l domain.Listing) error {
	stored, ok := m.listings[l.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if stored.State != prior {
		return domain.ErrStaleListing
	}
	m.listings[l.ID] = l
	return nil
}

// --- Tests ---

func TestTracingRepository_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	listing := domain.NewListing("lst-1", "Walnut Desk", "walnut-desk", "WD-100", "USD")
	if err := repo.Create(context.Background(), listing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "ListingRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "ListingRepository.Create")
	}

	assertAttribute(t, spans[0], "listing.id", "lst-1")
	assertAttribute(t, spans[0], "listing.slug", "walnut-desk")
}

func TestTracingRepository_GetByID_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingRepository_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	inner.listings["lst-1"] = domain.NewListing("lst-1", "A", "a", "SKU-A", "USD")
	inner.listings["lst-2"] = domain.NewListing("lst-2", "B", "b", "SKU-B", "EUR")

	listings, total, err := repo.List(context.Background(), domain.ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 || total != 2 {
		t.Errorf("got %d listings (total %d), want 2", len(listings), total)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "result.count", "2")
	assertAttribute(t, spans[0], "result.total", "2")
}

func TestTracingRepository_UpdateFrom_RecordsStates(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	listing := domain.NewListing("lst-1", "Walnut Desk", "walnut-desk", "WD-100", "USD")
	inner.listings["lst-1"] = listing

	listing.State = domain.StatePending
	if err := repo.UpdateFrom(context.Background(), domain.StateDraft, listing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "ListingRepository.UpdateFrom" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "ListingRepository.UpdateFrom")
	}

	assertAttribute(t, spans[0], "listing.state.prior", "draft")
	assertAttribute(t, spans[0], "listing.state.next", "pending")
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
