package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sellerdesk/listingflow/internal/domain"
)

const (
	reasonMinLength = 3
	reasonMaxLength = 500
)

// ApprovalService orchestrates the listing approval workflow: single-item
// transitions, the submission pre-check, bulk operations, and the read-side
// reporting queries.
type ApprovalService struct {
	repo      domain.ListingRepository
	audit     domain.AuditTrail
	caps      domain.CapabilityResolver
	validator domain.TransitionValidator
	hooks     domain.HookPublisher
	logger    *slog.Logger
}

// NewApprovalService creates a service with the given adapters. A nil logger
// falls back to slog.Default.
func NewApprovalService(
	repo domain.ListingRepository,
	audit domain.AuditTrail,
	caps domain.CapabilityResolver,
	validator domain.TransitionValidator,
	hooks domain.HookPublisher,
	logger *slog.Logger,
) *ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalService{
		repo:      repo,
		audit:     audit,
		caps:      caps,
		validator: validator,
		hooks:     hooks,
		logger:    logger,
	}
}

// CreateDraft persists a new listing in the draft state. Listing creation is
// catalog-management territory; this exists so the workflow is exercisable
// end to end.
func (s *ApprovalService) CreateDraft(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	if listing.State == "" {
		listing = domain.NewListing(listing.ID, listing.Name, listing.Slug, listing.SKU, listing.Currency)
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return domain.Listing{}, fmt.Errorf("creating listing: %w", err)
	}
	return listing, nil
}

// GetByID returns a listing by its identifier.
func (s *ApprovalService) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns listings matching the filter plus the total match count.
func (s *ApprovalService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Listing, int, error) {
	return s.repo.List(ctx, filter)
}

// Transition moves one listing to the target state. The pipeline runs in a
// fixed order and each stage can abort the whole call: fetch, transition
// legality, permission, state-specific business rules, compare-and-swap
// persist, audit, post-transition hooks. Audit and hook failures are logged
// and never fail a committed transition.
func (s *ApprovalService) Transition(ctx context.Context, id string, target domain.State, actor string, meta domain.TransitionMeta) (domain.Listing, error) {
	if !target.Valid() {
		return domain.Listing{}, &domain.ValidationError{Msg: fmt.Sprintf("unknown lifecycle state %q", target)}
	}

	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}

	if err := s.validator.Apply(ctx, listing.State, target); err != nil {
		return domain.Listing{}, err
	}

	if err := s.authorize(ctx, actor, target); err != nil {
		return domain.Listing{}, err
	}

	meta.Reason = strings.TrimSpace(meta.Reason)
	if err := s.checkBusinessRules(listing, target, meta); err != nil {
		return domain.Listing{}, err
	}

	prior := listing.State
	now := time.Now().UTC()
	listing.ApplyTransition(target, actor, meta, now)

	if err := s.repo.UpdateFrom(ctx, prior, listing); err != nil {
		return domain.Listing{}, err
	}

	action, _ := domain.ActionFor(target)
	event := domain.TransitionEvent{
		ListingID:   listing.ID,
		Action:      action,
		FromState:   prior,
		ToState:     target,
		ActorID:     actor,
		Description: describe(action, meta),
		OccurredAt:  now,
	}

	// The transition is committed; audit and hooks are best-effort from here.
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit record failed",
			"listing_id", listing.ID, "action", action, "error", err)
	}
	if err := s.hooks.Publish(ctx, event, listing); err != nil {
		s.logger.ErrorContext(ctx, "post-transition hook enqueue failed",
			"listing_id", listing.ID, "action", action, "error", err)
	}

	return listing, nil
}

// checkBusinessRules applies the state-specific validation that runs after
// legality and permission checks.
func (s *ApprovalService) checkBusinessRules(listing domain.Listing, target domain.State, meta domain.TransitionMeta) error {
	switch target {
	case domain.StateRejected:
		if len(meta.Reason) < reasonMinLength {
			return &domain.ValidationError{Msg: fmt.Sprintf("a rejection reason of at least %d characters is required", reasonMinLength)}
		}
		if len(meta.Reason) > reasonMaxLength {
			return &domain.ValidationError{Msg: fmt.Sprintf("rejection reason must not exceed %d characters", reasonMaxLength)}
		}
	case domain.StateApproved:
		if violations := CheckApprovalCompliance(listing); len(violations) > 0 {
			return &domain.ComplianceError{Violations: violations}
		}
	case domain.StateSuspended:
		if !listing.IsActive {
			return &domain.ValidationError{Msg: "cannot suspend an inactive listing; reactivate it first"}
		}
	}
	return nil
}

func (s *ApprovalService) authorize(ctx context.Context, actor string, target domain.State) error {
	held, err := s.caps.CapabilitiesOf(ctx, actor)
	if err != nil {
		return fmt.Errorf("resolving capabilities for %q: %w", actor, err)
	}
	for _, required := range domain.RequiredCapabilities[target] {
		for _, c := range held {
			if c == required {
				return nil
			}
		}
	}
	return &domain.ForbiddenError{ActorID: actor, Target: target}
}

// Approve is the boundary specialization of Transition into approved.
func (s *ApprovalService) Approve(ctx context.Context, id, actor, notes string) (domain.Listing, error) {
	return s.Transition(ctx, id, domain.StateApproved, actor, domain.TransitionMeta{Notes: notes})
}

// Reject is the boundary specialization of Transition into rejected.
func (s *ApprovalService) Reject(ctx context.Context, id, actor, reason string) (domain.Listing, error) {
	return s.Transition(ctx, id, domain.StateRejected, actor, domain.TransitionMeta{Reason: reason})
}

// Suspend is the boundary specialization of Transition into suspended.
func (s *ApprovalService) Suspend(ctx context.Context, id, actor, reason string) (domain.Listing, error) {
	return s.Transition(ctx, id, domain.StateSuspended, actor, domain.TransitionMeta{Reason: reason})
}

// Archive is the boundary specialization of Transition into archived.
func (s *ApprovalService) Archive(ctx context.Context, id, actor string) (domain.Listing, error) {
	return s.Transition(ctx, id, domain.StateArchived, actor, domain.TransitionMeta{})
}

// SubmitForApproval runs an upfront readiness check phrased for a draft
// context, then moves the listing into the review queue. All readiness
// violations are collected and reported together so the caller is not stuck
// in a resubmit-and-fail-again loop.
func (s *ApprovalService) SubmitForApproval(ctx context.Context, id, actor string) (domain.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}

	if listing.State != domain.StateDraft && listing.State != domain.StateRejected {
		return domain.Listing{}, &domain.TransitionError{Current: listing.State, Target: domain.StatePending}
	}

	if violations := CheckSubmissionReadiness(listing); len(violations) > 0 {
		return domain.Listing{}, &domain.ComplianceError{Violations: violations}
	}

	return s.Transition(ctx, id, domain.StatePending, actor, domain.TransitionMeta{})
}

func describe(action domain.Action, meta domain.TransitionMeta) string {
	desc := string(action)
	if meta.Reason != "" {
		desc += ": " + meta.Reason
	}
	if meta.Notes != "" {
		desc += " (" + meta.Notes + ")"
	}
	return desc
}
