package api

import (
	"encoding/json"
	"net/http"

	"github.com/closeloop/backend/internal/attribution"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AttributionHandler provides the per-deal credit split endpoint for
// reporting and dashboard consumers
type AttributionHandler struct {
	calculator *attribution.Calculator
	logger     zerolog.Logger
}

// NewAttributionHandler creates a new AttributionHandler
func NewAttributionHandler(calc *attribution.Calculator, logger zerolog.Logger) *AttributionHandler {
	return &AttributionHandler{
		calculator: calc,
		logger:     logger.With().Str("component", "attribution_handler").Logger(),
	}
}

// GetAttribution returns the weighted credit split for one deal
// GET /api/deals/{dealId}/attribution?owner=<ownerId>
func (h *AttributionHandler) GetAttribution(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealId")
	if dealID == "" {
		http.Error(w, "dealId is required", http.StatusBadRequest)
		return
	}

	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		http.Error(w, "owner query parameter is required", http.StatusBadRequest)
		return
	}

	result, err := h.calculator.Calculate(dealID, ownerID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("deal_id", dealID).
			Str("owner_id", ownerID).
			Msg("failed to calculate attribution")
		http.Error(w, "failed to calculate attribution", http.StatusInternalServerError)
		return
	}
	if result == nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
