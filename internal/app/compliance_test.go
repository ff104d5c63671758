package app_test

import (
	"testing"

	"github.com/sellerdesk/listingflow/internal/app"
	"github.com/sellerdesk/listingflow/internal/domain"
)

func TestCheckApprovalCompliance_CompliantListing(t *testing.T) {
	l := compliantListing("1", domain.StatePending)
	if violations := app.CheckApprovalCompliance(l); len(violations) != 0 {
		t.Errorf("expected no violations, got %v", violations)
	}
}

func TestCheckApprovalCompliance_AccumulatesEverything(t *testing.T) {
	l := domain.Listing{
		Name:     "X",
		Currency: "XBT",
		SKU:      "  ",
	}

	violations := app.CheckApprovalCompliance(l)
	// Short name, bad currency, blank SKU, no image, no variant, no pricing.
	if len(violations) != 6 {
		t.Errorf("violations = %v, want all 6", violations)
	}
}

func TestCheckApprovalCompliance_Currency(t *testing.T) {
	cases := []struct {
		currency string
		ok       bool
	}{
		{"USD", true},
		{"EUR", true},
		{"JPY", true},
		{"usd", false},
		{"XBT", false},
		{"", false},
	}

	for _, tc := range cases {
		l := compliantListing("1", domain.StatePending)
		l.Currency = tc.currency
		violations := app.CheckApprovalCompliance(l)
		if tc.ok && len(violations) != 0 {
			t.Errorf("currency %q: expected compliant, got %v", tc.currency, violations)
		}
		if !tc.ok && len(violations) == 0 {
			t.Errorf("currency %q: expected a violation", tc.currency)
		}
	}
}

func TestCheckSubmissionReadiness(t *testing.T) {
	l := compliantListing("1", domain.StateDraft)
	if violations := app.CheckSubmissionReadiness(l); len(violations) != 0 {
		t.Errorf("expected ready, got %v", violations)
	}

	l.IsActive = false
	l.Slug = ""
	violations := app.CheckSubmissionReadiness(l)
	if len(violations) != 2 {
		t.Errorf("violations = %v, want 2 (inactive, missing slug)", violations)
	}
}
