package attribution

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/closeloop/backend/internal/metrics"
	"github.com/closeloop/backend/internal/storage"
	"github.com/closeloop/backend/internal/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WeightConfig bounds the linear time-decay weights. The first touch
// on a deal earns Floor, the last touch earns Ceiling, touches in
// between scale linearly with recency.
type WeightConfig struct {
	Floor   float64
	Ceiling float64
}

// DefaultWeightConfig returns the standard 0.5-1.0 bounds: the last
// touch earns twice the first, and no touch drops below half of the
// maximum.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{Floor: 0.5, Ceiling: 1.0}
}

// Calculator computes the weighted credit split for a single deal from
// its touchpoint history. It is pure and re-entrant: identical inputs
// produce identical outputs and nothing is mutated.
type Calculator struct {
	deals       storage.DealStore
	touchpoints storage.TouchpointStore
	weights     WeightConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCalculator creates a calculator reading from store
func NewCalculator(store storage.Store, weights WeightConfig, logger zerolog.Logger) *Calculator {
	return &Calculator{
		deals:       store,
		touchpoints: store,
		weights:     weights,
		logger:      logger.With().Str("component", "attribution_calculator").Logger(),
		now:         time.Now,
	}
}

type group struct {
	weight  float64
	touches int
	first   bool
	last    bool
}

// Calculate returns the credit split for the deal, nil when no deal
// exists for the given id and owner. A deal with no touchpoints yields
// a zero-value DealAttribution, not an error.
func (c *Calculator) Calculate(dealID, ownerID string) (*types.DealAttribution, error) {
	start := time.Now()
	m := metrics.Get()

	deal, err := c.deals.GetDeal(dealID, ownerID)
	if err != nil {
		m.RecordAttributionError()
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if deal == nil {
		return nil, nil
	}

	tps, err := c.touchpoints.TouchpointsByContact(dealID, ownerID)
	if err != nil {
		m.RecordAttributionError()
		return nil, fmt.Errorf("failed to load touchpoints: %w", err)
	}

	result := &types.DealAttribution{
		DealID:       deal.DealID,
		DealValue:    deal.Value,
		Stage:        deal.Stage,
		Attributions: []types.Attribution{},
		TotalTouches: len(tps),
	}
	if len(tps) == 0 {
		m.RecordAttributionCalc(time.Since(start))
		return result, nil
	}

	first := tps[0].CreatedAt
	last := tps[len(tps)-1].CreatedAt

	// Clamp the range to one second so simultaneous touchpoints land
	// on the weight floor instead of dividing by zero
	rng := last.Sub(first)
	if rng < time.Second {
		rng = time.Second
	}

	groups := make(map[types.AgentType]*group)
	for i, tp := range tps {
		recency := float64(tp.CreatedAt.Sub(first)) / float64(rng)
		weight := c.weights.Floor + (c.weights.Ceiling-c.weights.Floor)*recency

		g := groups[tp.AgentType]
		if g == nil {
			g = &group{}
			groups[tp.AgentType] = g
		}
		g.weight += weight
		g.touches++
		if i == 0 {
			g.first = true
		}
		if i == len(tps)-1 {
			g.last = true
		}
	}

	var totalWeight float64
	for _, g := range groups {
		totalWeight += g.weight
	}

	dealValue := decimal.NewFromFloat(deal.Value)
	attributions := make([]types.Attribution, 0, len(groups))
	for agent, g := range groups {
		percent := int(math.Round(g.weight / totalWeight * 100))
		// Credit value derives from the rounded percent, not the raw
		// weight, so the dollar figure always matches the published
		// percentage
		value := dealValue.
			Mul(decimal.NewFromInt(int64(percent))).
			Div(decimal.NewFromInt(100)).
			Round(2)

		attributions = append(attributions, types.Attribution{
			AgentType:     agent,
			TouchCount:    g.touches,
			FirstTouch:    g.first,
			LastTouch:     g.last,
			CreditPercent: percent,
			CreditValue:   value.InexactFloat64(),
		})
	}

	sort.Slice(attributions, func(i, j int) bool {
		if attributions[i].CreditPercent != attributions[j].CreditPercent {
			return attributions[i].CreditPercent > attributions[j].CreditPercent
		}
		return attributions[i].AgentType < attributions[j].AgentType
	})

	result.Attributions = attributions
	result.DaysToClose = c.daysToClose(deal, first, last)

	m.RecordAttributionCalc(time.Since(start))
	return result, nil
}

// daysToClose measures whole days from the first touch to the last
// touch for won deals, or to now for deals still in flight
func (c *Calculator) daysToClose(deal *types.Deal, first, last time.Time) int {
	end := last
	if deal.Stage != types.StageWon {
		end = c.now()
	}
	elapsed := end.Sub(first)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Hours() / 24)
}
