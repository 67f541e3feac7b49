package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/closeloop/backend/internal/performance"
	"github.com/closeloop/backend/internal/types"
	"github.com/rs/zerolog"
)

// PerformanceHandler provides the cross-deal agent rollup endpoint
type PerformanceHandler struct {
	aggregator *performance.Aggregator
	logger     zerolog.Logger
}

// NewPerformanceHandler creates a new PerformanceHandler
func NewPerformanceHandler(agg *performance.Aggregator, logger zerolog.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		aggregator: agg,
		logger:     logger.With().Str("component", "performance_handler").Logger(),
	}
}

// GetReport returns per-agent performance for an owner
// GET /api/performance?owner=<ownerId>&start=<RFC3339>&end=<RFC3339>
func (h *PerformanceHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		http.Error(w, "owner query parameter is required", http.StatusBadRequest)
		return
	}

	period, err := parsePeriod(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.aggregator.Report(ownerID, period)
	if err != nil {
		h.logger.Error().Err(err).
			Str("owner_id", ownerID).
			Msg("failed to build performance report")
		http.Error(w, "failed to build performance report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// parsePeriod turns optional start/end query values into a Period.
// Both must be given together.
func parsePeriod(start, end string) (*types.Period, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, errBadPeriod("start and end must be provided together")
	}

	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return nil, errBadPeriod("invalid start timestamp (RFC3339 required)")
	}
	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return nil, errBadPeriod("invalid end timestamp (RFC3339 required)")
	}
	if endTime.Before(startTime) {
		return nil, errBadPeriod("end must not be before start")
	}

	return &types.Period{Start: startTime, End: endTime}, nil
}

type errBadPeriod string

func (e errBadPeriod) Error() string { return string(e) }
