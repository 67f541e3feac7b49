package types

import "time"

// AgentType represents the category of automated actor that produced a touchpoint
type AgentType string

const (
	AgentScout      AgentType = "scout"
	AgentResearcher AgentType = "researcher"
	AgentQualifier  AgentType = "qualifier"
	AgentOutreach   AgentType = "outreach"
	AgentCaller     AgentType = "caller"
	AgentCloser     AgentType = "closer"
	AgentOps        AgentType = "ops"
	AgentManual     AgentType = "manual"
)

// AllAgentTypes returns all defined agent types
var AllAgentTypes = []AgentType{
	AgentScout,
	AgentResearcher,
	AgentQualifier,
	AgentOutreach,
	AgentCaller,
	AgentCloser,
	AgentOps,
	AgentManual,
}

// Valid reports whether a is a member of the closed agent type set
func (a AgentType) Valid() bool {
	for _, known := range AllAgentTypes {
		if a == known {
			return true
		}
	}
	return false
}

// Touchpoint is one immutable record of an agent acting on a contact.
// Touchpoints are created once with a server-assigned timestamp and are
// never updated or deleted.
type Touchpoint struct {
	ID        string    `json:"id" dynamodbav:"TouchpointID"`
	ContactID string    `json:"contactId" dynamodbav:"ContactID"`
	OwnerID   string    `json:"ownerId" dynamodbav:"OwnerID"`
	AgentType AgentType `json:"agentType" dynamodbav:"AgentType"`
	Action    string    `json:"action" dynamodbav:"Action"`
	Metadata  *Metadata `json:"metadata,omitempty" dynamodbav:"Metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
}

// Metadata carries the structured payload of a touchpoint. At most one
// section is set, matching the action that produced the touchpoint.
type Metadata struct {
	Call     *CallMetadata     `json:"call,omitempty" dynamodbav:"Call,omitempty"`
	Message  *MessageMetadata  `json:"message,omitempty" dynamodbav:"Message,omitempty"`
	Research *ResearchMetadata `json:"research,omitempty" dynamodbav:"Research,omitempty"`
	Note     *NoteMetadata     `json:"note,omitempty" dynamodbav:"Note,omitempty"`
}

// CallMetadata describes a completed call touchpoint
type CallMetadata struct {
	DurationSeconds float64 `json:"durationSeconds" dynamodbav:"DurationSeconds"`
	Outcome         string  `json:"outcome,omitempty" dynamodbav:"Outcome,omitempty"`
}

// MessageMetadata describes an outbound message touchpoint
type MessageMetadata struct {
	Channel    string `json:"channel" dynamodbav:"Channel"`
	TemplateID string `json:"templateId,omitempty" dynamodbav:"TemplateID,omitempty"`
}

// ResearchMetadata describes a lead research or scoring touchpoint
type ResearchMetadata struct {
	Source string  `json:"source" dynamodbav:"Source"`
	Score  float64 `json:"score,omitempty" dynamodbav:"Score,omitempty"`
}

// NoteMetadata describes a manual note touchpoint
type NoteMetadata struct {
	Text string `json:"text" dynamodbav:"Text"`
}

// Period bounds a query to a time window. Both ends are inclusive.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the period
func (p *Period) Contains(t time.Time) bool {
	if p == nil {
		return true
	}
	return !t.Before(p.Start) && !t.After(p.End)
}
