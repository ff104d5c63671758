package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sellerdesk/listingflow/internal/app"
	"github.com/sellerdesk/listingflow/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	listings map[string]domain.Listing
}

func newMockRepo() *mockRepo {
	return &mockRepo{listings: make(map[string]domain.Listing)}
}

func (m *mockRepo) Create(_ context.Context, l domain.Listing) error {
	m.listings[l.ID] = l
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return l, nil
}

func (m *mockRepo) List(_ context.Context, filter domain.ListFilter) ([]domain.Listing, int, error) {
	var out []domain.Listing
	for _, l := range m.listings {
		if filter.State != nil && l.State != *filter.State {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (m *mockRepo) Count(_ context.Context, filter domain.ListFilter) (int, error) {
	n := 0
	for _, l := range m.listings {
		if filter.State != nil && l.State != *filter.State {
			continue
		}
		if filter.ApprovedSince != nil {
			if l.ApprovedAt == nil || l.ApprovedAt.Unix() < *filter.ApprovedSince {
				continue
			}
		}
		n++
	}
	return n, nil
}

func (m *mockRepo) UpdateFrom(_ context.Context, prior domain.State, l domain.Listing) error {
	stored, ok := m.listings[l.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if stored.State != prior {
		return domain.ErrStaleListing
	}
	m.listings[l.ID] = l
	return nil
}

type mockAudit struct {
	events    []domain.TransitionEvent
	recordErr error
}

func (m *mockAudit) Record(_ context.Context, e domain.TransitionEvent) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockAudit) ListByListing(_ context.Context, id string, _ int) ([]domain.TransitionEvent, error) {
	var out []domain.TransitionEvent
	for _, e := range m.events {
		if e.ListingID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockCaps struct {
	grants map[string][]domain.Capability
}

func (m *mockCaps) CapabilitiesOf(_ context.Context, actor string) ([]domain.Capability, error) {
	return m.grants[actor], nil
}

type mockHooks struct {
	published  []domain.TransitionEvent
	publishErr error
}

func (m *mockHooks) Publish(_ context.Context, e domain.TransitionEvent, _ domain.Listing) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, e)
	return nil
}

// tableValidator checks legality straight against domain.Transitions.
type tableValidator struct{}

func (tableValidator) Apply(_ context.Context, current, target domain.State) error {
	for _, t := range domain.Transitions {
		if t.Src == current && t.Dst == target {
			return nil
		}
	}
	return &domain.TransitionError{Current: current, Target: target}
}

// --- Fixtures ---

type fixture struct {
	repo  *mockRepo
	audit *mockAudit
	caps  *mockCaps
	hooks *mockHooks
	svc   *app.ApprovalService
}

func newFixture() *fixture {
	f := &fixture{
		repo:  newMockRepo(),
		audit: &mockAudit{},
		caps: &mockCaps{grants: map[string][]domain.Capability{
			"admin":  {domain.CapabilitySubmit, domain.CapabilityApprove, domain.CapabilitySuspend, domain.CapabilityArchive},
			"vendor": {domain.CapabilitySubmit},
		}},
		hooks: &mockHooks{},
	}
	f.svc = app.NewApprovalService(f.repo, f.audit, f.caps, tableValidator{}, f.hooks, nil)
	return f
}

func compliantListing(id string, state domain.State) domain.Listing {
	l := domain.NewListing(id, "Walnut Desk", "walnut-desk", "WD-100", "USD")
	l.State = state
	l.ImageCount = 2
	l.PricedVariantCount = 1
	l.PricingAssigned = true
	return l
}

// --- Tests ---

func TestTransition_ApproveHappyPath(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StatePending)

	got, err := f.svc.Transition(context.Background(), "42", domain.StateApproved, "admin", domain.TransitionMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.State != domain.StateApproved {
		t.Errorf("State = %q, want %q", got.State, domain.StateApproved)
	}
	if got.ApprovedBy != "admin" || got.ApprovedAt == nil {
		t.Errorf("ApprovedBy/ApprovedAt = %q/%v, want both set", got.ApprovedBy, got.ApprovedAt)
	}
	if got.RejectionReason != "" {
		t.Errorf("RejectionReason = %q, want cleared", got.RejectionReason)
	}
	if !got.IsPublished {
		t.Error("approved listing should be published")
	}

	if len(f.audit.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(f.audit.events))
	}
	e := f.audit.events[0]
	if e.FromState != domain.StatePending || e.ToState != domain.StateApproved {
		t.Errorf("event states = %q→%q, want pending→approved", e.FromState, e.ToState)
	}
	if e.Action != domain.ActionApprove {
		t.Errorf("event action = %q, want %q", e.Action, domain.ActionApprove)
	}

	if len(f.hooks.published) != 1 {
		t.Errorf("expected 1 hook publish, got %d", len(f.hooks.published))
	}
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Transition(context.Background(), "missing", domain.StateApproved, "admin", domain.TransitionMeta{})
	if !errors.Is(err, domain.ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}
}

func TestTransition_IllegalPair_StateUnchanged(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StateApproved)

	_, err := f.svc.Transition(context.Background(), "42", domain.StateRejected, "admin", domain.TransitionMeta{Reason: "bad listing"})
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}

	stored := f.repo.listings["42"]
	if stored.State != domain.StateApproved {
		t.Errorf("state changed to %q after failed transition", stored.State)
	}
	if len(f.audit.events) != 0 {
		t.Errorf("no audit event expected on failure, got %d", len(f.audit.events))
	}
}

func TestTransition_Forbidden(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StatePending)

	_, err := f.svc.Transition(context.Background(), "42", domain.StateApproved, "vendor", domain.TransitionMeta{})
	var fErr *domain.ForbiddenError
	if !errors.As(err, &fErr) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	if fErr.ActorID != "vendor" {
		t.Errorf("actor = %q, want %q", fErr.ActorID, "vendor")
	}
	if f.repo.listings["42"].State != domain.StatePending {
		t.Error("state must not change on permission failure")
	}
}

func TestTransition_RejectWithoutReason(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StatePending)

	for _, reason := range []string{"", "  ", "ab"} {
		_, err := f.svc.Transition(context.Background(), "42", domain.StateRejected, "admin", domain.TransitionMeta{Reason: reason})
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("reason %q: expected ValidationError, got %v", reason, err)
		}
	}
	if f.repo.listings["42"].State != domain.StatePending {
		t.Error("state must not change when the reason is missing")
	}
}

func TestTransition_RejectSetsReasonClearsApproval(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StatePending)

	got, err := f.svc.Transition(context.Background(), "42", domain.StateRejected, "admin", domain.TransitionMeta{Reason: "poor photos"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RejectionReason != "poor photos" {
		t.Errorf("RejectionReason = %q, want %q", got.RejectionReason, "poor photos")
	}
	if got.ApprovedBy != "" || got.ApprovedAt != nil {
		t.Error("ApprovedBy and ApprovedAt must both be cleared on rejection")
	}
}

func TestTransition_ApproveIncomplete_ListsAllViolations(t *testing.T) {
	f := newFixture()
	l := compliantListing("42", domain.StatePending)
	l.Name = ""
	l.ImageCount = 0
	f.repo.listings["42"] = l

	_, err := f.svc.Transition(context.Background(), "42", domain.StateApproved, "admin", domain.TransitionMeta{})
	var cErr *domain.ComplianceError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ComplianceError, got %v", err)
	}
	if len(cErr.Violations) != 2 {
		t.Errorf("violations = %v, want exactly 2 (name and image)", cErr.Violations)
	}
	if !strings.Contains(err.Error(), "image") || !strings.Contains(err.Error(), "display name") {
		t.Errorf("message should carry both violations, got %q", err.Error())
	}
}

func TestTransition_SuspendInactive(t *testing.T) {
	f := newFixture()
	l := compliantListing("42", domain.StateApproved)
	l.IsActive = false
	f.repo.listings["42"] = l

	_, err := f.svc.Transition(context.Background(), "42", domain.StateSuspended, "admin", domain.TransitionMeta{Reason: "fraud"})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestTransition_SuspendKeepsReason(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StateApproved)

	got, err := f.svc.Suspend(context.Background(), "42", "admin", "counterfeit report")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RejectionReason != "counterfeit report" {
		t.Errorf("RejectionReason = %q, want the suspension reason", got.RejectionReason)
	}
	if got.IsActive || got.IsPublished {
		t.Error("suspended listing should be inactive and unpublished")
	}
}

func TestTransition_SecondCallIsNotANoOp(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StatePending)

	if _, err := f.svc.Approve(context.Background(), "42", "admin", ""); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}

	_, err := f.svc.Approve(context.Background(), "42", "admin", "")
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("second approve should fail with TransitionError, got %v", err)
	}
}

func TestTransition_AuditFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture()
	f.audit.recordErr = errors.New("sink unavailable")
	f.repo.listings["42"] = compliantListing("42", domain.StatePending)

	got, err := f.svc.Approve(context.Background(), "42", "admin", "")
	if err != nil {
		t.Fatalf("transition must not fail when audit fails: %v", err)
	}
	if got.State != domain.StateApproved {
		t.Errorf("State = %q, want %q", got.State, domain.StateApproved)
	}
	if f.repo.listings["42"].State != domain.StateApproved {
		t.Error("committed state must survive an audit failure")
	}
}

func TestTransition_HookFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture()
	f.hooks.publishErr = errors.New("queue down")
	f.repo.listings["42"] = compliantListing("42", domain.StatePending)

	if _, err := f.svc.Approve(context.Background(), "42", "admin", ""); err != nil {
		t.Fatalf("transition must not fail when hook enqueue fails: %v", err)
	}
}

func TestTransition_UnknownTargetState(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StateDraft)

	_, err := f.svc.Transition(context.Background(), "42", domain.State("published"), "admin", domain.TransitionMeta{})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for unknown state, got %v", err)
	}
}

func TestSubmitForApproval_CollectsAllViolations(t *testing.T) {
	f := newFixture()
	l := compliantListing("42", domain.StateDraft)
	l.ImageCount = 0
	l.PricingAssigned = false
	f.repo.listings["42"] = l

	_, err := f.svc.SubmitForApproval(context.Background(), "42", "admin")
	var cErr *domain.ComplianceError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ComplianceError, got %v", err)
	}
	if len(cErr.Violations) != 2 {
		t.Errorf("violations = %v, want 2", cErr.Violations)
	}
	if !strings.Contains(err.Error(), "at least one image is required") {
		t.Errorf("message should cite the missing image, got %q", err.Error())
	}
	if f.repo.listings["42"].State != domain.StateDraft {
		t.Error("state must stay draft when readiness fails")
	}
}

func TestSubmitForApproval_SucceedsAfterFix(t *testing.T) {
	f := newFixture()
	l := compliantListing("42", domain.StateDraft)
	l.ImageCount = 0
	f.repo.listings["42"] = l

	if _, err := f.svc.SubmitForApproval(context.Background(), "42", "admin"); err == nil {
		t.Fatal("expected readiness failure for missing image")
	}

	// Add an image, resubmit.
	l.ImageCount = 1
	f.repo.listings["42"] = l

	got, err := f.svc.SubmitForApproval(context.Background(), "42", "admin")
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if got.State != domain.StatePending {
		t.Errorf("State = %q, want %q", got.State, domain.StatePending)
	}
}

func TestSubmitForApproval_FromRejected(t *testing.T) {
	f := newFixture()
	l := compliantListing("42", domain.StateRejected)
	l.RejectionReason = "poor photos"
	f.repo.listings["42"] = l

	got, err := f.svc.SubmitForApproval(context.Background(), "42", "vendor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != domain.StatePending {
		t.Errorf("State = %q, want %q", got.State, domain.StatePending)
	}
}

func TestSubmitForApproval_WrongState(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StateApproved)

	_, err := f.svc.SubmitForApproval(context.Background(), "42", "admin")
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestTransition_StaleListing(t *testing.T) {
	f := newFixture()
	f.repo.listings["42"] = compliantListing("42", domain.StatePending)

	// Simulate a lost race: the validator sees pending, but by the time the
	// update lands the stored row moved on.
	svc := app.NewApprovalService(&racingRepo{mockRepo: f.repo, swapTo: domain.StateRejected}, f.audit, f.caps, tableValidator{}, f.hooks, nil)

	_, err := svc.Approve(context.Background(), "42", "admin", "")
	if !errors.Is(err, domain.ErrStaleListing) {
		t.Errorf("expected ErrStaleListing, got %v", err)
	}
}

// racingRepo flips the stored state between GetByID and UpdateFrom.
type racingRepo struct {
	*mockRepo
	swapTo domain.State
	read   bool
}

func (r *racingRepo) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	l, err := r.mockRepo.GetByID(ctx, id)
	if err == nil && !r.read {
		r.read = true
		moved := l
		moved.State = r.swapTo
		r.listings[id] = moved
	}
	return l, err
}

func TestExampleListing42Walkthrough(t *testing.T) {
	// Listing in draft, missing an image: submit fails, fix, submit,
	// approve, then a direct reject on the approved listing is illegal.
	f := newFixture()
	l := compliantListing("42", domain.StateDraft)
	l.ImageCount = 0
	f.repo.listings["42"] = l

	_, err := f.svc.SubmitForApproval(context.Background(), "42", "admin")
	if err == nil || !strings.Contains(err.Error(), "at least one image is required") {
		t.Fatalf("expected an image violation, got %v", err)
	}

	l.ImageCount = 1
	f.repo.listings["42"] = l

	if _, err := f.svc.SubmitForApproval(context.Background(), "42", "admin"); err != nil {
		t.Fatalf("submit after fix failed: %v", err)
	}

	got, err := f.svc.Approve(context.Background(), "42", "admin", "")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if !got.IsPublished {
		t.Error("approved listing should be published")
	}

	_, err = f.svc.Reject(context.Background(), "42", "admin", "")
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("reject on approved listing should be an illegal transition, got %v", err)
	}
}
