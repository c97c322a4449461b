package domain

// DashboardSummary is the analytics dashboard snapshot.
type DashboardSummary struct {
	ActiveContracts    int     `json:"active_contracts"`
	PendingClaims      int     `json:"pending_claims"`
	TotalRevenueMTD    float64 `json:"total_revenue_mtd"`
	ClaimsRatio        float64 `json:"claims_ratio"`
	NewClientsMTD      int     `json:"new_clients_mtd"`
	TopPerformingAgent string  `json:"top_performing_agent,omitempty"`
}
