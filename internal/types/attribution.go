package types

// Attribution is one agent type's share of the credit for a deal.
// Touchpoints from the same agent type are pooled into a single row.
type Attribution struct {
	AgentType     AgentType `json:"agentType"`
	TouchCount    int       `json:"touchCount"`
	FirstTouch    bool      `json:"firstTouch"`
	LastTouch     bool      `json:"lastTouch"`
	CreditPercent int       `json:"creditPercent"`
	CreditValue   float64   `json:"creditValue"`
}

// DealAttribution is the full weighted credit split for one deal,
// recomputed from the touchpoint ledger on every request.
type DealAttribution struct {
	DealID       string        `json:"dealId"`
	DealValue    float64       `json:"dealValue"`
	Stage        DealStage     `json:"stage"`
	Attributions []Attribution `json:"attributions"`
	TotalTouches int           `json:"totalTouches"`
	DaysToClose  int           `json:"daysToClose"`
}
