package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sellerdesk/listingflow/internal/app"
	"github.com/sellerdesk/listingflow/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ListingResponse is the API representation of a listing.
type ListingResponse struct {
	ID                 string `json:"id" doc:"Unique identifier"`
	Name               string `json:"name" doc:"Display name"`
	Slug               string `json:"slug" doc:"URL-friendly identifier"`
	SKU                string `json:"sku" doc:"Stock-keeping identifier"`
	Currency           string `json:"currency" doc:"ISO currency code"`
	State              string `json:"state" doc:"Lifecycle state"`
	IsActive           bool   `json:"is_active" doc:"Operationally active"`
	IsPublished        bool   `json:"is_published" doc:"Publicly visible"`
	RejectionReason    string `json:"rejection_reason,omitempty" doc:"Reason for rejection or suspension"`
	ApprovedBy         string `json:"approved_by,omitempty" doc:"Approving actor"`
	ApprovedAt         string `json:"approved_at,omitempty" doc:"Approval timestamp (ISO 8601)"`
	ImageCount         int    `json:"image_count" doc:"Number of attached images"`
	PricedVariantCount int    `json:"priced_variant_count" doc:"Number of priced variants"`
	PricingAssigned    bool   `json:"pricing_assigned" doc:"Pricing record assigned"`
	LastActivityAt     string `json:"last_activity_at" doc:"Last transition timestamp (ISO 8601)"`
	CreatedAt          string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toListingResponse(l domain.Listing) ListingResponse {
	resp := ListingResponse{
		ID:                 l.ID,
		Name:               l.Name,
		Slug:               l.Slug,
		SKU:                l.SKU,
		Currency:           l.Currency,
		State:              string(l.State),
		IsActive:           l.IsActive,
		IsPublished:        l.IsPublished,
		RejectionReason:    l.RejectionReason,
		ApprovedBy:         l.ApprovedBy,
		ImageCount:         l.ImageCount,
		PricedVariantCount: l.PricedVariantCount,
		PricingAssigned:    l.PricingAssigned,
		LastActivityAt:     l.LastActivityAt.Format(timeFormat),
		CreatedAt:          l.CreatedAt.Format(timeFormat),
	}
	if l.ApprovedAt != nil {
		resp.ApprovedAt = l.ApprovedAt.Format(timeFormat)
	}
	return resp
}

// EventResponse is the API representation of one audit trail entry.
type EventResponse struct {
	ListingID   string `json:"listing_id" doc:"Listing the event belongs to"`
	Action      string `json:"action" doc:"Transition action"`
	FromState   string `json:"from_state" doc:"State before the transition"`
	ToState     string `json:"to_state" doc:"State after the transition"`
	ActorID     string `json:"actor_id" doc:"Acting party"`
	Description string `json:"description" doc:"Action plus optional reason/notes"`
	OccurredAt  string `json:"occurred_at" doc:"Event timestamp (ISO 8601)"`
}

// --- Create Listing ---

type CreateListingInput struct {
	Body struct {
		ID                 string `json:"id" minLength:"1" maxLength:"64" doc:"Caller-supplied identifier"`
		Name               string `json:"name" maxLength:"255" doc:"Display name"`
		Slug               string `json:"slug" maxLength:"100" pattern:"^$|^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-friendly identifier (lowercase, hyphens)"`
		SKU                string `json:"sku,omitempty" maxLength:"64" doc:"Stock-keeping identifier"`
		Currency           string `json:"currency,omitempty" maxLength:"3" doc:"ISO currency code"`
		ImageCount         int    `json:"image_count,omitempty" minimum:"0" doc:"Number of attached images"`
		PricedVariantCount int    `json:"priced_variant_count,omitempty" minimum:"0" doc:"Number of priced variants"`
		PricingAssigned    bool   `json:"pricing_assigned,omitempty" doc:"Pricing record assigned"`
	}
}

type CreateListingOutput struct {
	Body ListingResponse
}

// --- Get Listing ---

type GetListingInput struct {
	ID string `path:"id" doc:"Listing ID"`
}

type GetListingOutput struct {
	Body ListingResponse
}

// --- List Listings ---

type ListListingsInput struct {
	State  string `query:"state" required:"false" doc:"Filter by lifecycle state"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListListingsOutput struct {
	Body struct {
		Items []ListingResponse `json:"items" doc:"Page of listings"`
		Total int               `json:"total" doc:"Total matches before pagination"`
	}
}

// --- Pending Queue ---

type PendingListingsInput struct {
	Limit  int `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

// --- Submit ---

type SubmitInput struct {
	ID    string `path:"id" doc:"Listing ID"`
	Actor string `header:"X-Actor-ID" doc:"Acting party"`
}

type SubmitOutput struct {
	Body ListingResponse
}

// --- Transition ---

type TransitionInput struct {
	ID    string `path:"id" doc:"Listing ID"`
	Actor string `header:"X-Actor-ID" doc:"Acting party"`
	Body  struct {
		Target string `json:"target" doc:"Target lifecycle state" enum:"draft,pending,approved,rejected,suspended,archived"`
		Reason string `json:"reason,omitempty" maxLength:"500" doc:"Reason (mandatory when rejecting)"`
		Notes  string `json:"notes,omitempty" maxLength:"500" doc:"Free-form notes"`
	}
}

type TransitionOutput struct {
	Body ListingResponse
}

// --- Approve / Reject ---

type ApproveInput struct {
	ID    string `path:"id" doc:"Listing ID"`
	Actor string `header:"X-Actor-ID" doc:"Acting party"`
	Body  struct {
		Notes string `json:"notes,omitempty" maxLength:"500" doc:"Free-form notes"`
	}
}

type ApproveOutput struct {
	Body ListingResponse
}

type RejectInput struct {
	ID    string `path:"id" doc:"Listing ID"`
	Actor string `header:"X-Actor-ID" doc:"Acting party"`
	Body  struct {
		Reason string `json:"reason" minLength:"1" maxLength:"500" doc:"Rejection reason"`
	}
}

type RejectOutput struct {
	Body ListingResponse
}

// --- Bulk ---

type BulkTransitionInput struct {
	Actor string `header:"X-Actor-ID" doc:"Acting party"`
	Body  struct {
		IDs    []string `json:"ids" minItems:"1" maxItems:"500" doc:"Listing identifiers"`
		Target string   `json:"target" doc:"Target lifecycle state" enum:"draft,pending,approved,rejected,suspended,archived"`
		Reason string   `json:"reason,omitempty" maxLength:"500" doc:"Reason applied to every item"`
	}
}

type BulkItemResponse struct {
	ListingID string `json:"listing_id" doc:"Listing identifier"`
	Outcome   string `json:"outcome" doc:"One of successful, failed, skipped"`
	Message   string `json:"message,omitempty" doc:"Failure or skip detail"`
}

type BulkTransitionOutput struct {
	Body struct {
		TotalRequested int                `json:"total_requested" doc:"Number of ids in the request"`
		Successful     int                `json:"successful" doc:"Items that transitioned"`
		Failed         int                `json:"failed" doc:"Items that errored"`
		Skipped        int                `json:"skipped" doc:"Items the transition did not apply to"`
		Items          []BulkItemResponse `json:"items" doc:"Per-id outcomes in input order"`
		Errors         []string           `json:"errors,omitempty" doc:"Ordered failure messages"`
	}
}

// --- History ---

type HistoryInput struct {
	ID    string `path:"id" doc:"Listing ID"`
	Limit int    `query:"limit" required:"false" default:"50" doc:"Max events"`
}

type HistoryOutput struct {
	Body []EventResponse
}

// --- Stats ---

type StatsOutput struct {
	Body struct {
		Total   int            `json:"total" doc:"Total listings"`
		ByState map[string]int `json:"by_state" doc:"Listing count per lifecycle state"`
		Trend   struct {
			ThisWeek     int `json:"this_week" doc:"Approvals in the last 7 days"`
			PreviousWeek int `json:"previous_week" doc:"Approvals in the 7 days before that"`
			Delta        int `json:"delta" doc:"Week-over-week change"`
		} `json:"trend" doc:"Week-over-week approval trend"`
	}
}

// Register adds all approval workflow routes to the Huma API.
func Register(api huma.API, svc *app.ApprovalService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings",
		Summary:     "Create a draft listing",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *CreateListingInput) (*CreateListingOutput, error) {
		draft := domain.NewListing(input.Body.ID, input.Body.Name, input.Body.Slug, input.Body.SKU, input.Body.Currency)
		draft.ImageCount = input.Body.ImageCount
		draft.PricedVariantCount = input.Body.PricedVariantCount
		draft.PricingAssigned = input.Body.PricingAssigned

		listing, err := svc.CreateDraft(ctx, draft)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateListingOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get a listing by ID",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *GetListingInput) (*GetListingOutput, error) {
		listing, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetListingOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List listings",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *ListListingsInput) (*ListListingsOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.State != "" {
			s := domain.State(input.State)
			filter.State = &s
		}

		listings, total, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ListListingsOutput{}
		out.Body.Total = total
		out.Body.Items = make([]ListingResponse, len(listings))
		for i, l := range listings {
			out.Body.Items[i] = toListingResponse(l)
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pending-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/pending",
		Summary:     "Approval queue of pending listings",
		Tags:        []string{"Approval"},
	}, func(ctx context.Context, input *PendingListingsInput) (*ListListingsOutput, error) {
		listings, total, err := svc.PendingListings(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ListListingsOutput{}
		out.Body.Total = total
		out.Body.Items = make([]ListingResponse, len(listings))
		for i, l := range listings {
			out.Body.Items[i] = toListingResponse(l)
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/submit",
		Summary:     "Submit a draft for approval",
		Tags:        []string{"Approval"},
	}, func(ctx context.Context, input *SubmitInput) (*SubmitOutput, error) {
		listing, err := svc.SubmitForApproval(ctx, input.ID, input.Actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubmitOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/transitions",
		Summary:     "Move a listing to a target lifecycle state",
		Tags:        []string{"Approval"},
	}, func(ctx context.Context, input *TransitionInput) (*TransitionOutput, error) {
		listing, err := svc.Transition(ctx, input.ID, domain.State(input.Body.Target), input.Actor, domain.TransitionMeta{
			Reason: input.Body.Reason,
			Notes:  input.Body.Notes,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TransitionOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/approve",
		Summary:     "Approve a listing",
		Tags:        []string{"Approval"},
	}, func(ctx context.Context, input *ApproveInput) (*ApproveOutput, error) {
		listing, err := svc.Approve(ctx, input.ID, input.Actor, input.Body.Notes)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApproveOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/reject",
		Summary:     "Reject a listing with a reason",
		Tags:        []string{"Approval"},
	}, func(ctx context.Context, input *RejectInput) (*RejectOutput, error) {
		listing, err := svc.Reject(ctx, input.ID, input.Actor, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RejectOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-transition-listings",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/bulk-transitions",
		Summary:     "Transition a batch of listings with per-item isolation",
		Tags:        []string{"Approval"},
	}, func(ctx context.Context, input *BulkTransitionInput) (*BulkTransitionOutput, error) {
		result, err := svc.BulkTransition(ctx, input.Body.IDs, domain.State(input.Body.Target), input.Actor, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &BulkTransitionOutput{}
		out.Body.TotalRequested = result.TotalRequested
		out.Body.Successful = result.Successful
		out.Body.Failed = result.Failed
		out.Body.Skipped = result.Skipped
		out.Body.Errors = result.Errors
		out.Body.Items = make([]BulkItemResponse, len(result.Items))
		for i, item := range result.Items {
			out.Body.Items[i] = BulkItemResponse{
				ListingID: item.ListingID,
				Outcome:   string(item.Outcome),
				Message:   item.Message,
			}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "listing-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}/history",
		Summary:     "Audit trail for one listing",
		Tags:        []string{"Approval"},
	}, func(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
		events, err := svc.History(ctx, input.ID, input.Limit)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]EventResponse, len(events))
		for i, e := range events {
			resp[i] = EventResponse{
				ListingID:   e.ListingID,
				Action:      string(e.Action),
				FromState:   string(e.FromState),
				ToState:     string(e.ToState),
				ActorID:     e.ActorID,
				Description: e.Description,
				OccurredAt:  e.OccurredAt.Format(timeFormat),
			}
		}
		return &HistoryOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approval-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/approvals",
		Summary:     "Listing counts per state plus the weekly approval trend",
		Tags:        []string{"Reporting"},
	}, func(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
		stats, err := svc.Stats(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		trend, err := svc.WeeklyApprovalTrend(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &StatsOutput{}
		out.Body.Total = stats.Total
		out.Body.ByState = make(map[string]int, len(stats.ByState))
		for state, n := range stats.ByState {
			out.Body.ByState[string(state)] = n
		}
		out.Body.Trend.ThisWeek = trend.ThisWeek
		out.Body.Trend.PreviousWeek = trend.PreviousWeek
		out.Body.Trend.Delta = trend.Delta
		return out, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrListingNotFound) {
		return huma.Error404NotFound("listing not found")
	}
	if errors.Is(err, domain.ErrStaleListing) {
		return huma.Error409Conflict(err.Error())
	}

	var forbiddenErr *domain.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return huma.Error403Forbidden(forbiddenErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error409Conflict(trErr.Error())
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error())
	}

	var compErr *domain.ComplianceError
	if errors.As(err, &compErr) {
		return huma.Error422UnprocessableEntity(compErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
