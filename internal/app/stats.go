package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// ApprovalStats holds per-state listing counts for dashboards.
type ApprovalStats struct {
	Total   int
	ByState map[domain.State]int
}

// WeeklyTrend compares approvals committed this week against the week before.
type WeeklyTrend struct {
	ThisWeek     int
	PreviousWeek int
	Delta        int
}

// PendingListings returns the review queue page plus the total queue size.
func (s *ApprovalService) PendingListings(ctx context.Context, limit, offset int) ([]domain.Listing, int, error) {
	state := domain.StatePending
	return s.repo.List(ctx, domain.ListFilter{State: &state, Limit: limit, Offset: offset})
}

// Stats counts listings per lifecycle state.
func (s *ApprovalService) Stats(ctx context.Context) (ApprovalStats, error) {
	stats := ApprovalStats{ByState: make(map[domain.State]int, len(domain.States))}
	for _, state := range domain.States {
		st := state
		n, err := s.repo.Count(ctx, domain.ListFilter{State: &st})
		if err != nil {
			return ApprovalStats{}, fmt.Errorf("counting %s listings: %w", state, err)
		}
		stats.ByState[state] = n
		stats.Total += n
	}
	return stats, nil
}

// WeeklyApprovalTrend counts listings approved in the last seven days and in
// the seven days before that, by approval timestamp.
func (s *ApprovalService) WeeklyApprovalTrend(ctx context.Context) (WeeklyTrend, error) {
	approved := domain.StateApproved
	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7).Unix()
	twoWeeksAgo := now.AddDate(0, 0, -14).Unix()

	thisWeek, err := s.repo.Count(ctx, domain.ListFilter{State: &approved, ApprovedSince: &weekAgo})
	if err != nil {
		return WeeklyTrend{}, fmt.Errorf("counting this week's approvals: %w", err)
	}
	sinceTwoWeeks, err := s.repo.Count(ctx, domain.ListFilter{State: &approved, ApprovedSince: &twoWeeksAgo})
	if err != nil {
		return WeeklyTrend{}, fmt.Errorf("counting last fortnight's approvals: %w", err)
	}

	previous := sinceTwoWeeks - thisWeek
	return WeeklyTrend{
		ThisWeek:     thisWeek,
		PreviousWeek: previous,
		Delta:        thisWeek - previous,
	}, nil
}

// History returns the most recent transition events for one listing.
func (s *ApprovalService) History(ctx context.Context, listingID string, limit int) ([]domain.TransitionEvent, error) {
	return s.audit.ListByListing(ctx, listingID, limit)
}
