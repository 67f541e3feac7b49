package types

// AgentPerformance aggregates one agent type's activity across an
// owner's book of business.
type AgentPerformance struct {
	AgentType         AgentType `json:"agentType"`
	TotalTouches      int       `json:"totalTouches"`
	DealsTouched      int       `json:"dealsTouched"`
	DealsWon          int       `json:"dealsWon"`
	RevenueAttributed float64   `json:"revenueAttributed"`
	AvgRevenuePerDeal float64   `json:"avgRevenuePerDeal"`
}

// ReportTotals contains owner-wide counts across all agent types
type ReportTotals struct {
	Deals   int     `json:"deals"`
	Revenue float64 `json:"revenue"`
	Touches int     `json:"touches"`
}

// PerformanceReport is the cross-deal rollup for one owner
type PerformanceReport struct {
	OwnerID string             `json:"ownerId"`
	Period  *Period            `json:"period,omitempty"`
	Agents  []AgentPerformance `json:"agents"`
	Totals  ReportTotals       `json:"totals"`
}
