package types

// DealStage represents the current pipeline stage of a deal
type DealStage string

const (
	StageOpen DealStage = "open"
	StageWon  DealStage = "won"
	StageLost DealStage = "lost"
)

// Deal is the read-only deal snapshot consumed by attribution and
// performance queries. Deals are owned by the surrounding product;
// this service never creates or mutates them. The deal id doubles as
// the contact id the deal was opened for.
type Deal struct {
	DealID  string    `json:"dealId" dynamodbav:"DealID"`
	OwnerID string    `json:"ownerId" dynamodbav:"OwnerID"`
	Stage   DealStage `json:"stage" dynamodbav:"Stage"`
	Value   float64   `json:"value" dynamodbav:"Value"`
}
