package api

import (
	"encoding/json"
	"net/http"

	"github.com/closeloop/backend/internal/ledger"
	"github.com/closeloop/backend/internal/types"
	"github.com/rs/zerolog"
)

// TouchpointHandler provides the internal ingest endpoint every agent
// collaborator calls when it acts on a contact
type TouchpointHandler struct {
	ledger *ledger.Ledger
	logger zerolog.Logger
}

// NewTouchpointHandler creates a new TouchpointHandler
func NewTouchpointHandler(l *ledger.Ledger, logger zerolog.Logger) *TouchpointHandler {
	return &TouchpointHandler{
		ledger: l,
		logger: logger.With().Str("component", "touchpoint_handler").Logger(),
	}
}

// RecordRequest is the wire shape of a touchpoint ingest call
type RecordRequest struct {
	ContactID string          `json:"contactId"`
	OwnerID   string          `json:"ownerId"`
	AgentType types.AgentType `json:"agentType"`
	Action    string          `json:"action"`
	Metadata  *types.Metadata `json:"metadata,omitempty"`
}

// Record appends one touchpoint to the ledger
// POST /internal/touchpoints
func (h *TouchpointHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("failed to decode touchpoint")
		http.Error(w, "invalid touchpoint", http.StatusBadRequest)
		return
	}

	if req.ContactID == "" || req.OwnerID == "" || req.Action == "" {
		http.Error(w, "contactId, ownerId and action are required", http.StatusBadRequest)
		return
	}
	if !req.AgentType.Valid() {
		http.Error(w, "unknown agent type", http.StatusBadRequest)
		return
	}

	tp, err := h.ledger.Record(ledger.RecordInput{
		ContactID: req.ContactID,
		OwnerID:   req.OwnerID,
		AgentType: req.AgentType,
		Action:    req.Action,
		Metadata:  req.Metadata,
	})
	if err != nil {
		h.logger.Error().Err(err).
			Str("contact_id", req.ContactID).
			Str("owner_id", req.OwnerID).
			Msg("failed to record touchpoint")
		http.Error(w, "failed to record touchpoint", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(tp)
}

// GetStats returns ledger ingest statistics
// GET /internal/touchpoints/stats
func (h *TouchpointHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	recorded, lastRecorded := h.ledger.Stats()

	stats := map[string]interface{}{
		"touchpoints_recorded": recorded,
		"last_recorded":        lastRecorded,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
