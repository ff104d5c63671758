package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// Compile-time check: CapabilityResolver implements domain.CapabilityResolver.
var _ domain.CapabilityResolver = (*CapabilityResolver)(nil)

// CapabilityResolver reads actor capability grants from the actor_capabilities
// table. Grant management is outside the approval core; this adapter only
// answers lookups.
type CapabilityResolver struct {
	db *sql.DB
}

// NewCapabilityResolver wraps a migrated database connection.
func NewCapabilityResolver(db *sql.DB) *CapabilityResolver {
	return &CapabilityResolver{db: db}
}

func (r *CapabilityResolver) CapabilitiesOf(ctx context.Context, actorID string) ([]domain.Capability, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT capability FROM actor_capabilities WHERE actor_id = ? ORDER BY capability`,
		actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying capabilities: %w", err)
	}
	defer rows.Close()

	var caps []domain.Capability
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning capability: %w", err)
		}
		caps = append(caps, domain.Capability(c))
	}

	return caps, rows.Err()
}

// Grant records a capability for an actor. Exposed for seeding and tests;
// idempotent on duplicates.
func (r *CapabilityResolver) Grant(ctx context.Context, actorID string, capability domain.Capability) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO actor_capabilities (actor_id, capability) VALUES (?, ?)`,
		actorID, string(capability),
	)
	if err != nil {
		return fmt.Errorf("granting capability: %w", err)
	}
	return nil
}
