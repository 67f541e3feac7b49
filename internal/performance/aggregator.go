package performance

import (
	"fmt"
	"sort"
	"time"

	"github.com/closeloop/backend/internal/metrics"
	"github.com/closeloop/backend/internal/storage"
	"github.com/closeloop/backend/internal/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Aggregator rolls up touchpoints and deal outcomes across an owner's
// whole book of business.
//
// Revenue here uses an equal split of each won deal across the
// distinct agent types that touched it. This deliberately differs from
// the per-deal time-decay model in the attribution package; the two
// report different revenue figures for the same deal and must not be
// unified without a product decision.
type Aggregator struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewAggregator creates an aggregator reading from store
func NewAggregator(store storage.Store, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logger.With().Str("component", "performance_aggregator").Logger(),
	}
}

type agentAgg struct {
	touches int
	deals   map[string]bool
	won     map[string]bool
	revenue decimal.Decimal
}

// Report computes per-agent performance for the owner, optionally
// bounded to a time window. Purely derived from the ledger and deal
// snapshot at call time; nothing is mutated.
func (a *Aggregator) Report(ownerID string, period *types.Period) (*types.PerformanceReport, error) {
	start := time.Now()
	m := metrics.Get()

	tps, err := a.store.TouchpointsByOwner(ownerID, period)
	if err != nil {
		m.RecordReportError()
		return nil, fmt.Errorf("failed to load touchpoints: %w", err)
	}

	report := &types.PerformanceReport{
		OwnerID: ownerID,
		Period:  period,
		Agents:  []types.AgentPerformance{},
	}
	if len(tps) == 0 {
		m.RecordReport(time.Since(start))
		return report, nil
	}

	// Distinct deals referenced by the touchpoints, and the distinct
	// agent types that touched each
	var dealIDs []string
	dealAgents := make(map[string]map[types.AgentType]bool)
	aggs := make(map[types.AgentType]*agentAgg)

	for _, tp := range tps {
		agg := aggs[tp.AgentType]
		if agg == nil {
			agg = &agentAgg{
				deals:   make(map[string]bool),
				won:     make(map[string]bool),
				revenue: decimal.Zero,
			}
			aggs[tp.AgentType] = agg
		}
		agg.touches++
		agg.deals[tp.ContactID] = true

		if dealAgents[tp.ContactID] == nil {
			dealAgents[tp.ContactID] = make(map[types.AgentType]bool)
			dealIDs = append(dealIDs, tp.ContactID)
		}
		dealAgents[tp.ContactID][tp.AgentType] = true
	}

	deals, err := a.store.GetDeals(ownerID, dealIDs)
	if err != nil {
		m.RecordReportError()
		return nil, fmt.Errorf("failed to load deals: %w", err)
	}

	// Equal split: each won deal's value divided across the distinct
	// agent types that ever touched it
	totalRevenue := decimal.Zero
	for dealID, agents := range dealAgents {
		deal, ok := deals[dealID]
		if !ok || deal.Stage != types.StageWon {
			continue
		}

		totalRevenue = totalRevenue.Add(decimal.NewFromFloat(deal.Value))
		share := decimal.NewFromFloat(deal.Value).
			Div(decimal.NewFromInt(int64(len(agents)))).
			Round(2)

		for agent := range agents {
			aggs[agent].won[dealID] = true
			aggs[agent].revenue = aggs[agent].revenue.Add(share)
		}
	}

	rows := make([]types.AgentPerformance, 0, len(aggs))
	totalTouches := 0
	for agent, agg := range aggs {
		row := types.AgentPerformance{
			AgentType:         agent,
			TotalTouches:      agg.touches,
			DealsTouched:      len(agg.deals),
			DealsWon:          len(agg.won),
			RevenueAttributed: agg.revenue.InexactFloat64(),
		}
		if row.DealsTouched > 0 {
			row.AvgRevenuePerDeal = agg.revenue.
				Div(decimal.NewFromInt(int64(row.DealsTouched))).
				Round(2).
				InexactFloat64()
		}
		rows = append(rows, row)
		totalTouches += agg.touches
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RevenueAttributed != rows[j].RevenueAttributed {
			return rows[i].RevenueAttributed > rows[j].RevenueAttributed
		}
		return rows[i].AgentType < rows[j].AgentType
	})

	report.Agents = rows
	report.Totals = types.ReportTotals{
		Deals:   len(dealIDs),
		Revenue: totalRevenue.InexactFloat64(),
		Touches: totalTouches,
	}

	m.RecordReport(time.Since(start))
	return report, nil
}
