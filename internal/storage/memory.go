package storage

import (
	"sort"
	"sync"

	"github.com/closeloop/backend/internal/types"
)

// MemoryStore keeps the touchpoint log and deal snapshot in process
// memory. It backs tests and DYNAMO_MODE=none deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	touchpoints []types.Touchpoint
	deals       map[string]types.Deal // dealID + "/" + ownerID
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		touchpoints: make([]types.Touchpoint, 0, 256),
		deals:       make(map[string]types.Deal),
	}
}

func (s *MemoryStore) PutTouchpoint(tp types.Touchpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchpoints = append(s.touchpoints, tp)
	return nil
}

func (s *MemoryStore) TouchpointsByContact(contactID, ownerID string) ([]types.Touchpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []types.Touchpoint
	for _, tp := range s.touchpoints {
		if tp.ContactID == contactID && tp.OwnerID == ownerID {
			result = append(result, tp)
		}
	}
	sortTouchpoints(result)
	return result, nil
}

func (s *MemoryStore) TouchpointsByOwner(ownerID string, period *types.Period) ([]types.Touchpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []types.Touchpoint
	for _, tp := range s.touchpoints {
		if tp.OwnerID == ownerID && period.Contains(tp.CreatedAt) {
			result = append(result, tp)
		}
	}
	sortTouchpoints(result)
	return result, nil
}

func (s *MemoryStore) GetDeal(dealID, ownerID string) (*types.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deal, ok := s.deals[dealKey(dealID, ownerID)]
	if !ok {
		return nil, nil
	}
	return &deal, nil
}

func (s *MemoryStore) GetDeals(ownerID string, dealIDs []string) (map[string]types.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]types.Deal, len(dealIDs))
	for _, id := range dealIDs {
		if deal, ok := s.deals[dealKey(id, ownerID)]; ok {
			result[id] = deal
		}
	}
	return result, nil
}

// PutDeal seeds the deal snapshot. Used by tests and local tooling;
// the production snapshot is written by the surrounding product.
func (s *MemoryStore) PutDeal(deal types.Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals[dealKey(deal.DealID, deal.OwnerID)] = deal
}

func dealKey(dealID, ownerID string) string {
	return dealID + "/" + ownerID
}

// sortTouchpoints orders touchpoints by creation time ascending, with
// the id as tie-break so repeated reads come back in a stable order.
func sortTouchpoints(tps []types.Touchpoint) {
	sort.SliceStable(tps, func(i, j int) bool {
		if tps[i].CreatedAt.Equal(tps[j].CreatedAt) {
			return tps[i].ID < tps[j].ID
		}
		return tps[i].CreatedAt.Before(tps[j].CreatedAt)
	})
}
