package performance

import (
	"testing"
	"time"

	"github.com/closeloop/backend/internal/storage"
	"github.com/closeloop/backend/internal/types"
	"github.com/rs/zerolog"
)

func TestReportEqualSplitOnWonDeal(t *testing.T) {
	// One won deal worth 9,000 touched by scout and closer: each gets
	// 4,500 regardless of touch order or count
	day0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore()
	store.PutDeal(types.Deal{DealID: "d-1", OwnerID: "o-1", Stage: types.StageWon, Value: 9000})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-1", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentScout, Action: "t", CreatedAt: day0})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-2", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentCloser, Action: "t", CreatedAt: day0.AddDate(0, 0, 3)})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-3", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentCloser, Action: "t", CreatedAt: day0.AddDate(0, 0, 4)})

	agg := NewAggregator(store, zerolog.Nop())
	report, err := agg.Report("o-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Agents) != 2 {
		t.Fatalf("expected 2 agent rows, got %d", len(report.Agents))
	}
	for _, row := range report.Agents {
		if row.RevenueAttributed != 4500.00 {
			t.Errorf("%s: expected equal split 4500.00, got %.2f", row.AgentType, row.RevenueAttributed)
		}
		if row.DealsTouched != 1 || row.DealsWon != 1 {
			t.Errorf("%s: expected 1 deal touched and won, got %d / %d", row.AgentType, row.DealsTouched, row.DealsWon)
		}
	}

	if report.Totals.Deals != 1 {
		t.Errorf("expected 1 distinct deal, got %d", report.Totals.Deals)
	}
	if report.Totals.Revenue != 9000.00 {
		t.Errorf("expected total revenue 9000.00, got %.2f", report.Totals.Revenue)
	}
	if report.Totals.Touches != 3 {
		t.Errorf("expected 3 total touches, got %d", report.Totals.Touches)
	}
}

func TestReportLostAndOpenDealsEarnNoRevenue(t *testing.T) {
	day0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore()
	store.PutDeal(types.Deal{DealID: "d-lost", OwnerID: "o-1", Stage: types.StageLost, Value: 4000})
	store.PutDeal(types.Deal{DealID: "d-open", OwnerID: "o-1", Stage: types.StageOpen, Value: 6000})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-1", ContactID: "d-lost", OwnerID: "o-1", AgentType: types.AgentOutreach, Action: "t", CreatedAt: day0})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-2", ContactID: "d-open", OwnerID: "o-1", AgentType: types.AgentOutreach, Action: "t", CreatedAt: day0})

	agg := NewAggregator(store, zerolog.Nop())
	report, err := agg.Report("o-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Agents) != 1 {
		t.Fatalf("expected 1 agent row, got %d", len(report.Agents))
	}
	row := report.Agents[0]
	if row.RevenueAttributed != 0 {
		t.Errorf("expected no revenue from unclosed deals, got %.2f", row.RevenueAttributed)
	}
	if row.DealsTouched != 2 {
		t.Errorf("expected 2 deals touched, got %d", row.DealsTouched)
	}
	if row.DealsWon != 0 {
		t.Errorf("expected 0 deals won, got %d", row.DealsWon)
	}
	if report.Totals.Revenue != 0 {
		t.Errorf("expected 0 total revenue, got %.2f", report.Totals.Revenue)
	}
}

func TestReportSortedByRevenueDescending(t *testing.T) {
	day0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore()
	// closer touches two won deals, scout only one
	store.PutDeal(types.Deal{DealID: "d-1", OwnerID: "o-1", Stage: types.StageWon, Value: 1000})
	store.PutDeal(types.Deal{DealID: "d-2", OwnerID: "o-1", Stage: types.StageWon, Value: 8000})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-1", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentScout, Action: "t", CreatedAt: day0})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-2", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentCloser, Action: "t", CreatedAt: day0})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-3", ContactID: "d-2", OwnerID: "o-1", AgentType: types.AgentCloser, Action: "t", CreatedAt: day0})

	agg := NewAggregator(store, zerolog.Nop())
	report, err := agg.Report("o-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Agents) != 2 {
		t.Fatalf("expected 2 agent rows, got %d", len(report.Agents))
	}
	if report.Agents[0].AgentType != types.AgentCloser {
		t.Errorf("expected closer first with highest revenue, got %s", report.Agents[0].AgentType)
	}
	// closer: 500 from d-1 + 8000 from d-2
	if report.Agents[0].RevenueAttributed != 8500.00 {
		t.Errorf("expected closer revenue 8500.00, got %.2f", report.Agents[0].RevenueAttributed)
	}
	if report.Agents[1].RevenueAttributed != 500.00 {
		t.Errorf("expected scout revenue 500.00, got %.2f", report.Agents[1].RevenueAttributed)
	}
	// closer average over 2 deals touched
	if report.Agents[0].AvgRevenuePerDeal != 4250.00 {
		t.Errorf("expected closer avg 4250.00, got %.2f", report.Agents[0].AvgRevenuePerDeal)
	}
}

func TestReportWindowBoundsTouchpoints(t *testing.T) {
	day0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore()
	store.PutDeal(types.Deal{DealID: "d-1", OwnerID: "o-1", Stage: types.StageWon, Value: 1000})
	store.PutDeal(types.Deal{DealID: "d-2", OwnerID: "o-1", Stage: types.StageWon, Value: 2000})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-1", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentCaller, Action: "t", CreatedAt: day0})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-2", ContactID: "d-2", OwnerID: "o-1", AgentType: types.AgentCaller, Action: "t", CreatedAt: day0.AddDate(0, 1, 0)})

	agg := NewAggregator(store, zerolog.Nop())
	period := &types.Period{Start: day0.AddDate(0, 0, 15), End: day0.AddDate(0, 2, 0)}
	report, err := agg.Report("o-1", period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the touch on d-2 is inside the window
	if report.Totals.Deals != 1 {
		t.Errorf("expected 1 deal inside window, got %d", report.Totals.Deals)
	}
	if report.Totals.Revenue != 2000.00 {
		t.Errorf("expected revenue 2000.00 inside window, got %.2f", report.Totals.Revenue)
	}
}

func TestReportEmptyLedger(t *testing.T) {
	agg := NewAggregator(storage.NewMemoryStore(), zerolog.Nop())
	report, err := agg.Report("o-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Agents) != 0 {
		t.Errorf("expected no agent rows, got %d", len(report.Agents))
	}
	if report.Totals.Deals != 0 || report.Totals.Revenue != 0 || report.Totals.Touches != 0 {
		t.Errorf("expected zero totals, got %+v", report.Totals)
	}
}

func TestReportThreeWayEqualSplitRounding(t *testing.T) {
	// 1000 / 3 agents: each share rounds to 333.33
	day0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore()
	store.PutDeal(types.Deal{DealID: "d-1", OwnerID: "o-1", Stage: types.StageWon, Value: 1000})
	for i, agent := range []types.AgentType{types.AgentScout, types.AgentCaller, types.AgentCloser} {
		store.PutTouchpoint(types.Touchpoint{
			ID:        string(rune('a' + i)),
			ContactID: "d-1",
			OwnerID:   "o-1",
			AgentType: agent,
			Action:    "t",
			CreatedAt: day0.AddDate(0, 0, i),
		})
	}

	agg := NewAggregator(store, zerolog.Nop())
	report, err := agg.Report("o-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, row := range report.Agents {
		if row.RevenueAttributed != 333.33 {
			t.Errorf("%s: expected 333.33, got %.2f", row.AgentType, row.RevenueAttributed)
		}
	}
	// Totals use the full deal value, not the sum of rounded shares
	if report.Totals.Revenue != 1000.00 {
		t.Errorf("expected total revenue 1000.00, got %.2f", report.Totals.Revenue)
	}
}
