package api

import (
	"context"
	"fmt"

	"github.com/avetikov/polisdesk/pkg/domain"
)

// Dashboard fetches the analytics dashboard snapshot.
func (g *Gateway) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	var summary domain.DashboardSummary
	if err := g.get(ctx, "/analytics/dashboard", &summary); err != nil {
		return nil, fmt.Errorf("api.Dashboard: %w", err)
	}
	return &summary, nil
}
