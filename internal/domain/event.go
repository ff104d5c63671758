package domain

import "time"

// TransitionEvent is an immutable audit record describing one committed
// state change. Events are appended, never updated or deleted.
type TransitionEvent struct {
	ID          int64
	ListingID   string
	Action      Action
	FromState   State
	ToState     State
	ActorID     string
	Description string
	OccurredAt  time.Time
}

// Outcome classifies one listing's result within a bulk operation.
type Outcome string

const (
	OutcomeSuccessful Outcome = "successful"
	OutcomeFailed     Outcome = "failed"
	OutcomeSkipped    Outcome = "skipped"
)

// ItemResult is the per-listing entry of a BulkResult.
type ItemResult struct {
	ListingID string
	Outcome   Outcome
	Message   string
}

// BulkResult is the aggregate outcome of a multi-listing transition request.
// It is ephemeral: computed per call, never persisted. The Items slice holds
// exactly one entry per requested id, in input order.
type BulkResult struct {
	TotalRequested int
	Successful     int
	Failed         int
	Skipped        int
	Items          []ItemResult
	Errors         []string
}

// Add appends one item outcome and updates the counters. Failed and skipped
// messages are also collected into the ordered error list for operator UIs.
func (r *BulkResult) Add(listingID string, outcome Outcome, message string) {
	r.Items = append(r.Items, ItemResult{ListingID: listingID, Outcome: outcome, Message: message})
	switch outcome {
	case OutcomeSuccessful:
		r.Successful++
	case OutcomeFailed:
		r.Failed++
		r.Errors = append(r.Errors, listingID+": "+message)
	case OutcomeSkipped:
		r.Skipped++
	}
}
