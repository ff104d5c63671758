package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// bulkItemTimeout bounds each item's processing so one stuck listing cannot
// hang the whole batch. A timeout becomes that item's failed outcome.
const bulkItemTimeout = 10 * time.Second

// BulkTransition drives the single-item pipeline over a set of listing ids
// with per-item failure isolation: ids are processed independently in input
// order, one listing's failure never blocks or rolls back another's success,
// and no per-item error escapes the batch. The result partitions the
// requested id set exactly.
//
// Classification per item: a missing listing is failed ("Product not found"),
// an illegal state pair is skipped (nothing is wrong with the request, the
// item just doesn't apply), any other error is failed with its message.
func (s *ApprovalService) BulkTransition(ctx context.Context, ids []string, target domain.State, actor, reason string) (domain.BulkResult, error) {
	result := domain.BulkResult{TotalRequested: len(ids)}

	for _, id := range ids {
		itemCtx, cancel := context.WithTimeout(ctx, bulkItemTimeout)
		_, err := s.Transition(itemCtx, id, target, actor, domain.TransitionMeta{Reason: reason})
		cancel()

		var trErr *domain.TransitionError
		switch {
		case err == nil:
			result.Add(id, domain.OutcomeSuccessful, "")
		case errors.Is(err, domain.ErrListingNotFound):
			result.Add(id, domain.OutcomeFailed, "Product not found")
		case errors.As(err, &trErr):
			result.Add(id, domain.OutcomeSkipped, trErr.Error())
		default:
			result.Add(id, domain.OutcomeFailed, err.Error())
		}
	}

	// One aggregate event for the batch; per-item events were already
	// emitted by the single-item path.
	action, _ := domain.ActionFor(target)
	summary := domain.TransitionEvent{
		Action:  domain.Action("bulk_" + string(action)),
		ToState: target,
		ActorID: actor,
		Description: fmt.Sprintf("bulk %s: %d requested, %d successful, %d failed, %d skipped",
			action, result.TotalRequested, result.Successful, result.Failed, result.Skipped),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, summary); err != nil {
		s.logger.ErrorContext(ctx, "bulk summary audit record failed",
			"action", action, "error", err)
	}

	return result, nil
}
