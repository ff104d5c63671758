package app

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sellerdesk/listingflow/internal/domain"
)

// ApprovedCurrencies is the market allow-list for listing currencies.
var ApprovedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"CAD": true,
	"AUD": true,
	"JPY": true,
}

const minNameLength = 2

// CheckApprovalCompliance verifies a listing's market readiness for the
// approved state. It accumulates every violation instead of stopping at the
// first, so the caller gets the full list in one round-trip.
func CheckApprovalCompliance(l domain.Listing) []string {
	var violations []string

	if utf8.RuneCountInString(strings.TrimSpace(l.Name)) < minNameLength {
		violations = append(violations, "a display name of at least 2 characters is required")
	}
	if !ApprovedCurrencies[l.Currency] {
		violations = append(violations, "currency "+strconv.Quote(l.Currency)+" is not supported")
	}
	if strings.TrimSpace(l.SKU) == "" {
		violations = append(violations, "a stock-keeping identifier is required")
	}
	if l.ImageCount < 1 {
		violations = append(violations, "at least one image is required")
	}
	if l.PricedVariantCount < 1 {
		violations = append(violations, "at least one priced variant is required")
	}
	if !l.PricingAssigned {
		violations = append(violations, "a pricing record must be assigned")
	}

	return violations
}

// CheckSubmissionReadiness verifies a draft's completeness before it enters
// the review queue. Same accumulation contract as CheckApprovalCompliance,
// phrased for the draft context.
func CheckSubmissionReadiness(l domain.Listing) []string {
	var violations []string

	if !l.IsActive {
		violations = append(violations, "listing must be active before submission")
	}
	if strings.TrimSpace(l.Slug) == "" {
		violations = append(violations, "a URL slug is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		violations = append(violations, "a display name is required")
	}
	if l.ImageCount < 1 {
		violations = append(violations, "at least one image is required")
	}
	if l.PricedVariantCount < 1 {
		violations = append(violations, "at least one variant is required")
	}
	if !l.PricingAssigned {
		violations = append(violations, "a pricing record must be assigned")
	}

	return violations
}
