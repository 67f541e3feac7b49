package storage

import "github.com/closeloop/backend/internal/types"

// TouchpointStore is the append-only touchpoint log. Writes are
// independent appends; reads return touchpoints ordered by creation
// time ascending.
type TouchpointStore interface {
	PutTouchpoint(tp types.Touchpoint) error
	TouchpointsByContact(contactID, ownerID string) ([]types.Touchpoint, error)
	TouchpointsByOwner(ownerID string, period *types.Period) ([]types.Touchpoint, error)
}

// DealStore is the read-only deal snapshot maintained by the
// surrounding product. GetDeal returns nil without error when no deal
// exists for the given id and owner.
type DealStore interface {
	GetDeal(dealID, ownerID string) (*types.Deal, error)
	GetDeals(ownerID string, dealIDs []string) (map[string]types.Deal, error)
}

// Store combines the touchpoint log and the deal snapshot
type Store interface {
	TouchpointStore
	DealStore
}
