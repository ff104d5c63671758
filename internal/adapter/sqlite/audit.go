package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// Compile-time check: AuditTrail implements domain.AuditTrail.
var _ domain.AuditTrail = (*AuditTrail)(nil)

// AuditTrail is the append-only transition log backed by the same SQLite
// database as the listings. Rows are inserted, never updated or deleted.
type AuditTrail struct {
	db *sql.DB
}

// NewAuditTrail wraps a migrated database connection.
func NewAuditTrail(db *sql.DB) *AuditTrail {
	return &AuditTrail{db: db}
}

func (a *AuditTrail) Record(ctx context.Context, e domain.TransitionEvent) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO transition_events (listing_id, action, from_state, to_state, actor_id, description, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ListingID, string(e.Action), string(e.FromState), string(e.ToState),
		e.ActorID, e.Description, e.OccurredAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting transition event: %w", err)
	}
	return nil
}

func (a *AuditTrail) ListByListing(ctx context.Context, listingID string, limit int) ([]domain.TransitionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, listing_id, action, from_state, to_state, actor_id, description, occurred_at
		 FROM transition_events WHERE listing_id = ?
		 ORDER BY id DESC LIMIT ?`,
		listingID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transition events: %w", err)
	}
	defer rows.Close()

	var events []domain.TransitionEvent
	for rows.Next() {
		var e domain.TransitionEvent
		var action, fromState, toState, occurredAt string
		if err := rows.Scan(&e.ID, &e.ListingID, &action, &fromState, &toState,
			&e.ActorID, &e.Description, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning transition event: %w", err)
		}
		e.Action = domain.Action(action)
		e.FromState = domain.State(fromState)
		e.ToState = domain.State(toState)
		e.OccurredAt, _ = time.Parse(timeFormat, occurredAt)
		events = append(events, e)
	}

	return events, rows.Err()
}
