package domain

import "context"

// ListingRepository defines the persistence contract for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing Listing) error
	GetByID(ctx context.Context, id string) (Listing, error)
	List(ctx context.Context, filter ListFilter) ([]Listing, int, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	// UpdateFrom replaces the stored listing only if its current lifecycle
	// state still equals prior. Returns ErrStaleListing when another writer
	// got there first, ErrListingNotFound when the row is gone.
	UpdateFrom(ctx context.Context, prior State, listing Listing) error
}

// ListFilter holds optional criteria for listing queries.
type ListFilter struct {
	State         *State
	ApprovedSince *int64 // unix seconds; listings approved at or after this instant
	Limit         int
	Offset        int
}

// AuditTrail is the append-only sink recording committed transitions.
// Record failures must never abort the workflow that calls it.
type AuditTrail interface {
	Record(ctx context.Context, event TransitionEvent) error
	ListByListing(ctx context.Context, listingID string, limit int) ([]TransitionEvent, error)
}

// CapabilityResolver answers which permission tokens an actor holds.
type CapabilityResolver interface {
	CapabilitiesOf(ctx context.Context, actorID string) ([]Capability, error)
}

// TransitionValidator checks transition legality against the table.
type TransitionValidator interface {
	// Apply returns nil when target is reachable from current, or a
	// *TransitionError otherwise.
	Apply(ctx context.Context, current, target State) error
}

// HookPublisher dispatches post-transition side effects (vendor
// notifications, search-index invalidation). Fire-and-forget from the
// workflow's perspective.
type HookPublisher interface {
	Publish(ctx context.Context, event TransitionEvent, listing Listing) error
}
