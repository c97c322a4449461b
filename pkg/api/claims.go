package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/avetikov/polisdesk/pkg/domain"
)

// ClaimPage is one page of the claim list.
type ClaimPage struct {
	Claims []domain.Claim `json:"claims"`
	Total  int            `json:"total"`
	Skip   int            `json:"skip"`
	Limit  int            `json:"limit"`
}

// ClaimDecision is the adjuster's verdict on a claim.
type ClaimDecision struct {
	Decision       string   `json:"decision"` // approved, rejected, requires_investigation
	ApprovedAmount *float64 `json:"approved_amount,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// ListClaims fetches a page of claims, optionally filtered by status.
func (g *Gateway) ListClaims(ctx context.Context, status string, skip, limit int) (*ClaimPage, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(limit))

	var page ClaimPage
	if err := g.get(ctx, "/claims/?"+params.Encode(), &page); err != nil {
		return nil, fmt.Errorf("api.ListClaims: %w", err)
	}
	return &page, nil
}

// GetClaim fetches a single claim by ID.
func (g *Gateway) GetClaim(ctx context.Context, id int) (*domain.Claim, error) {
	var claim domain.Claim
	if err := g.get(ctx, fmt.Sprintf("/claims/%d/", id), &claim); err != nil {
		return nil, fmt.Errorf("api.GetClaim: %w", err)
	}
	return &claim, nil
}

// DecideClaim records the adjuster's decision on a claim.
func (g *Gateway) DecideClaim(ctx context.Context, id int, decision ClaimDecision) (*domain.Claim, error) {
	var updated domain.Claim
	if err := g.put(ctx, fmt.Sprintf("/claims/%d/decision", id), decision, &updated); err != nil {
		return nil, fmt.Errorf("api.DecideClaim: %w", err)
	}
	return &updated, nil
}
