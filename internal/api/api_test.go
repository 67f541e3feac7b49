package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/closeloop/backend/internal/attribution"
	"github.com/closeloop/backend/internal/ledger"
	"github.com/closeloop/backend/internal/performance"
	"github.com/closeloop/backend/internal/storage"
	"github.com/closeloop/backend/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func testRouter(store *storage.MemoryStore) *chi.Mux {
	logger := zerolog.Nop()

	tpHandler := NewTouchpointHandler(ledger.New(store, nil, logger), logger)
	attrHandler := NewAttributionHandler(attribution.NewCalculator(store, attribution.DefaultWeightConfig(), logger), logger)
	perfHandler := NewPerformanceHandler(performance.NewAggregator(store, logger), logger)

	r := chi.NewRouter()
	r.Post("/internal/touchpoints", tpHandler.Record)
	r.Get("/internal/touchpoints/stats", tpHandler.GetStats)
	r.Get("/api/deals/{dealId}/attribution", attrHandler.GetAttribution)
	r.Get("/api/performance", perfHandler.GetReport)
	return r
}

func TestRecordTouchpoint(t *testing.T) {
	store := storage.NewMemoryStore()
	router := testRouter(store)

	body := `{"contactId":"c-1","ownerId":"o-1","agentType":"outreach","action":"email_sent","metadata":{"message":{"channel":"email"}}}`
	req := httptest.NewRequest(http.MethodPost, "/internal/touchpoints", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var tp types.Touchpoint
	if err := json.Unmarshal(rec.Body.Bytes(), &tp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if tp.ID == "" {
		t.Error("expected server-assigned id in response")
	}
	if tp.CreatedAt.IsZero() {
		t.Error("expected server-assigned timestamp in response")
	}

	stored, _ := store.TouchpointsByContact("c-1", "o-1")
	if len(stored) != 1 {
		t.Errorf("expected 1 stored touchpoint, got %d", len(stored))
	}
}

func TestRecordTouchpointValidation(t *testing.T) {
	router := testRouter(storage.NewMemoryStore())

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing contact", `{"ownerId":"o-1","agentType":"scout","action":"a"}`},
		{"missing owner", `{"contactId":"c-1","agentType":"scout","action":"a"}`},
		{"missing action", `{"contactId":"c-1","ownerId":"o-1","agentType":"scout"}`},
		{"unknown agent type", `{"contactId":"c-1","ownerId":"o-1","agentType":"robot","action":"a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/touchpoints", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestGetAttribution(t *testing.T) {
	store := storage.NewMemoryStore()
	day0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store.PutDeal(types.Deal{DealID: "d-1", OwnerID: "o-1", Stage: types.StageWon, Value: 10000})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-1", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentScout, Action: "t", CreatedAt: day0})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-2", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentCaller, Action: "t", CreatedAt: day0.AddDate(0, 0, 5)})

	router := testRouter(store)
	req := httptest.NewRequest(http.MethodGet, "/api/deals/d-1/attribution?owner=o-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result types.DealAttribution
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(result.Attributions) != 2 {
		t.Fatalf("expected 2 attributions, got %d", len(result.Attributions))
	}
	if result.Attributions[0].AgentType != types.AgentCaller || result.Attributions[0].CreditPercent != 67 {
		t.Errorf("expected caller at 67%% first, got %s at %d%%",
			result.Attributions[0].AgentType, result.Attributions[0].CreditPercent)
	}
}

func TestGetAttributionNotFound(t *testing.T) {
	router := testRouter(storage.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/deals/missing/attribution?owner=o-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestGetAttributionMissingOwner(t *testing.T) {
	router := testRouter(storage.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/deals/d-1/attribution", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestGetAttributionEmptyHistory(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutDeal(types.Deal{DealID: "d-1", OwnerID: "o-1", Stage: types.StageOpen, Value: 5000})

	router := testRouter(store)
	req := httptest.NewRequest(http.MethodGet, "/api/deals/d-1/attribution?owner=o-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("empty history must be a 200, got %d", rec.Code)
	}

	var result types.DealAttribution
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(result.Attributions) != 0 || result.TotalTouches != 0 || result.DaysToClose != 0 {
		t.Errorf("expected zero-value attribution, got %+v", result)
	}
}

func TestGetPerformanceReport(t *testing.T) {
	store := storage.NewMemoryStore()
	day0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store.PutDeal(types.Deal{DealID: "d-1", OwnerID: "o-1", Stage: types.StageWon, Value: 9000})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-1", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentScout, Action: "t", CreatedAt: day0})
	store.PutTouchpoint(types.Touchpoint{ID: "tp-2", ContactID: "d-1", OwnerID: "o-1", AgentType: types.AgentCloser, Action: "t", CreatedAt: day0.AddDate(0, 0, 2)})

	router := testRouter(store)
	req := httptest.NewRequest(http.MethodGet, "/api/performance?owner=o-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report types.PerformanceReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(report.Agents) != 2 {
		t.Fatalf("expected 2 agent rows, got %d", len(report.Agents))
	}
	for _, row := range report.Agents {
		if row.RevenueAttributed != 4500.00 {
			t.Errorf("%s: expected 4500.00, got %.2f", row.AgentType, row.RevenueAttributed)
		}
	}
}

func TestGetPerformanceReportPeriodValidation(t *testing.T) {
	router := testRouter(storage.NewMemoryStore())

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing owner", "", http.StatusBadRequest},
		{"start without end", "?owner=o-1&start=2026-01-01T00:00:00Z", http.StatusBadRequest},
		{"invalid start", "?owner=o-1&start=yesterday&end=2026-01-31T00:00:00Z", http.StatusBadRequest},
		{"end before start", "?owner=o-1&start=2026-01-31T00:00:00Z&end=2026-01-01T00:00:00Z", http.StatusBadRequest},
		{"valid window", "?owner=o-1&start=2026-01-01T00:00:00Z&end=2026-01-31T00:00:00Z", http.StatusOK},
		{"no window", "?owner=o-1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/performance"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestTouchpointStats(t *testing.T) {
	store := storage.NewMemoryStore()
	router := testRouter(store)

	body := `{"contactId":"c-1","ownerId":"o-1","agentType":"ops","action":"sync"}`
	req := httptest.NewRequest(http.MethodPost, "/internal/touchpoints", strings.NewReader(body))
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/internal/touchpoints/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to parse stats: %v", err)
	}
	if stats["touchpoints_recorded"] != float64(1) {
		t.Errorf("expected 1 recorded, got %v", stats["touchpoints_recorded"])
	}
}
