package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/avetikov/polisdesk/pkg/domain"
)

// ContractPage is one page of the contract list.
type ContractPage struct {
	Contracts []domain.Contract `json:"contracts"`
	Total     int               `json:"total"`
	Skip      int               `json:"skip"`
	Limit     int               `json:"limit"`
}

// ListContracts fetches a page of contracts, optionally filtered by status.
func (g *Gateway) ListContracts(ctx context.Context, status string, skip, limit int) (*ContractPage, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(limit))

	var page ContractPage
	if err := g.get(ctx, "/contracts/?"+params.Encode(), &page); err != nil {
		return nil, fmt.Errorf("api.ListContracts: %w", err)
	}
	return &page, nil
}

// GetContract fetches a single contract by ID.
func (g *Gateway) GetContract(ctx context.Context, id int) (*domain.Contract, error) {
	var contract domain.Contract
	if err := g.get(ctx, fmt.Sprintf("/contracts/%d/", id), &contract); err != nil {
		return nil, fmt.Errorf("api.GetContract: %w", err)
	}
	return &contract, nil
}

// UpdateContractStatus moves a contract to a new status (activate, suspend,
// cancel). Allowed transitions are enforced server-side.
func (g *Gateway) UpdateContractStatus(ctx context.Context, id int, status string) (*domain.Contract, error) {
	var updated domain.Contract
	body := map[string]string{"status": status}
	if err := g.put(ctx, fmt.Sprintf("/contracts/%d/", id), body, &updated); err != nil {
		return nil, fmt.Errorf("api.UpdateContractStatus: %w", err)
	}
	return &updated, nil
}
