package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// Compile-time check: Publisher implements domain.HookPublisher.
var _ domain.HookPublisher = (*Publisher)(nil)

// HookJobArgs carries the data needed to run post-transition hooks
// asynchronously. River serializes this as JSON into its job queue table. It
// includes a snapshot of the listing at commit time, so the worker never
// needs to query the database.
type HookJobArgs struct {
	Action      string `json:"action"`
	ListingID   string `json:"listing_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	FromState   string `json:"from_state"`
	ToState     string `json:"to_state"`
	ActorID     string `json:"actor_id"`
	Reason      string `json:"reason,omitempty"`
	IsPublished bool   `json:"is_published"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (HookJobArgs) Kind() string { return "listing.transitioned" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.HookPublisher by enqueuing River jobs. The
// workflow treats the enqueue as fire-and-forget: a failure here is logged
// by the caller and never rolls back the committed transition.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues the post-transition hooks for one committed transition.
func (p *Publisher) Publish(ctx context.Context, event domain.TransitionEvent, listing domain.Listing) error {
	_, err := p.client.Insert(ctx, HookJobArgs{
		Action:      string(event.Action),
		ListingID:   listing.ID,
		Name:        listing.Name,
		Slug:        listing.Slug,
		FromState:   string(event.FromState),
		ToState:     string(event.ToState),
		ActorID:     event.ActorID,
		Reason:      listing.RejectionReason,
		IsPublished: listing.IsPublished,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing hook job: %w", err)
	}
	return nil
}
