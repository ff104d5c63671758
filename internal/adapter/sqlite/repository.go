package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/sellerdesk/listingflow/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: ListingRepository implements domain.ListingRepository.
var _ domain.ListingRepository = (*ListingRepository)(nil)

// ListingRepository implements the persistence gateway using SQLite.
type ListingRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*ListingRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns
// a ready repository. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*ListingRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &ListingRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *ListingRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (audit store, capability resolver, river).
func (r *ListingRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

const listingColumns = `id, name, slug, sku, currency, state, is_active, is_published,
	rejection_reason, approved_by, approved_at, image_count, priced_variant_count,
	pricing_assigned, last_activity_at, created_at, updated_at`

func (r *ListingRepository) Create(ctx context.Context, l domain.Listing) error {
	var approvedAt any
	if l.ApprovedAt != nil {
		approvedAt = l.ApprovedAt.Format(timeFormat)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Slug, l.SKU, l.Currency, string(l.State),
		boolToInt(l.IsActive), boolToInt(l.IsPublished),
		l.RejectionReason, l.ApprovedBy, approvedAt,
		l.ImageCount, l.PricedVariantCount, boolToInt(l.PricingAssigned),
		l.LastActivityAt.Format(timeFormat),
		l.CreatedAt.Format(timeFormat),
		l.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("listing %q already exists: %w", l.ID, err)
		}
		return fmt.Errorf("inserting listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	return r.scanListing(r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id,
	))
}

func (r *ListingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Listing, int, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	where, args := filterClause(filter)
	query += where
	query += ` ORDER BY last_activity_at DESC, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing query: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := r.scanListingFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, l)
	}

	return listings, total, rows.Err()
}

func (r *ListingRepository) Count(ctx context.Context, filter domain.ListFilter) (int, error) {
	query := `SELECT COUNT(*) FROM listings`
	where, args := filterClause(filter)
	query += where

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting listings: %w", err)
	}
	return n, nil
}

// UpdateFrom replaces the listing row only while its stored state still equals
// prior. The state column acts as the optimistic version: a concurrent writer
// that committed first leaves zero rows matching, which surfaces as
// ErrStaleListing rather than silently overwriting.
func (r *ListingRepository) UpdateFrom(ctx context.Context, prior domain.State, l domain.Listing) error {
	var approvedAt any
	if l.ApprovedAt != nil {
		approvedAt = l.ApprovedAt.Format(timeFormat)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET name = ?, slug = ?, sku = ?, currency = ?, state = ?,
		 is_active = ?, is_published = ?, rejection_reason = ?, approved_by = ?,
		 approved_at = ?, image_count = ?, priced_variant_count = ?,
		 pricing_assigned = ?, last_activity_at = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		l.Name, l.Slug, l.SKU, l.Currency, string(l.State),
		boolToInt(l.IsActive), boolToInt(l.IsPublished),
		l.RejectionReason, l.ApprovedBy, approvedAt,
		l.ImageCount, l.PricedVariantCount, boolToInt(l.PricingAssigned),
		l.LastActivityAt.Format(timeFormat),
		time.Now().UTC().Format(timeFormat),
		l.ID, string(prior),
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, l.ID); errors.Is(err, domain.ErrListingNotFound) {
			return domain.ErrListingNotFound
		}
		return domain.ErrStaleListing
	}

	return nil
}

func filterClause(filter domain.ListFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.State != nil {
		conds = append(conds, `state = ?`)
		args = append(args, string(*filter.State))
	}
	if filter.ApprovedSince != nil {
		// approved_at uses a sortable timestamp format, so string comparison
		// matches chronological order.
		conds = append(conds, `approved_at IS NOT NULL AND approved_at >= ?`)
		args = append(args, time.Unix(*filter.ApprovedSince, 0).UTC().Format(timeFormat))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

// scanListing scans a single row from QueryRow into a domain.Listing.
func (r *ListingRepository) scanListing(row *sql.Row) (domain.Listing, error) {
	l, err := scanListingFields(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, domain.ErrListingNotFound
		}
		return domain.Listing{}, fmt.Errorf("scanning listing: %w", err)
	}
	return l, nil
}

// scanListingFromRows scans a single row from Rows (used in List).
func (r *ListingRepository) scanListingFromRows(rows *sql.Rows) (domain.Listing, error) {
	l, err := scanListingFields(rows.Scan)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("scanning listing row: %w", err)
	}
	return l, nil
}

func scanListingFields(scan func(...any) error) (domain.Listing, error) {
	var l domain.Listing
	var state, lastActivityAt, createdAt, updatedAt string
	var approvedAt sql.NullString
	var isActive, isPublished, pricingAssigned int

	err := scan(&l.ID, &l.Name, &l.Slug, &l.SKU, &l.Currency, &state,
		&isActive, &isPublished, &l.RejectionReason, &l.ApprovedBy, &approvedAt,
		&l.ImageCount, &l.PricedVariantCount, &pricingAssigned,
		&lastActivityAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.Listing{}, err
	}

	l.State = domain.State(state)
	l.IsActive = isActive != 0
	l.IsPublished = isPublished != 0
	l.PricingAssigned = pricingAssigned != 0
	if approvedAt.Valid {
		if t, err := time.Parse(timeFormat, approvedAt.String); err == nil {
			l.ApprovedAt = &t
		}
	}
	l.LastActivityAt, _ = time.Parse(timeFormat, lastActivityAt)
	l.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	l.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return l, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
