package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/closeloop/backend/internal/metrics"
	"github.com/closeloop/backend/internal/storage"
	"github.com/closeloop/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrMissingField is returned when a required touchpoint field is empty
var ErrMissingField = errors.New("missing required touchpoint field")

// Publisher receives every recorded touchpoint as a JSON message
type Publisher interface {
	Broadcast(message []byte)
}

// RecordInput carries the caller-supplied fields of a touchpoint.
// The id and timestamp are assigned by the ledger.
type RecordInput struct {
	ContactID string
	OwnerID   string
	AgentType types.AgentType
	Action    string
	Metadata  *types.Metadata
}

// Ledger appends touchpoints to the store. Entries are immutable once
// written; there is no deduplication, so recording the same logical
// event twice creates two entries.
type Ledger struct {
	store     storage.TouchpointStore
	publisher Publisher
	logger    zerolog.Logger
	now       func() time.Time

	recorded     int64
	lastRecorded time.Time
	mu           sync.RWMutex
}

// New creates a ledger writing to store. publisher may be nil when no
// feed is attached.
func New(store storage.TouchpointStore, publisher Publisher, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "ledger").Logger(),
		now:       time.Now,
	}
}

// Record appends one touchpoint with a server-assigned id and
// timestamp and returns the stored entry. Store failures propagate to
// the caller.
func (l *Ledger) Record(in RecordInput) (types.Touchpoint, error) {
	m := metrics.Get()

	if in.ContactID == "" || in.OwnerID == "" || in.AgentType == "" || in.Action == "" {
		return types.Touchpoint{}, ErrMissingField
	}

	tp := types.Touchpoint{
		ID:        uuid.New().String(),
		ContactID: in.ContactID,
		OwnerID:   in.OwnerID,
		AgentType: in.AgentType,
		Action:    in.Action,
		Metadata:  in.Metadata,
		CreatedAt: l.now().UTC(),
	}

	if err := l.store.PutTouchpoint(tp); err != nil {
		m.RecordTouchpointError()
		return types.Touchpoint{}, fmt.Errorf("failed to record touchpoint: %w", err)
	}

	m.RecordTouchpoint()
	atomic.AddInt64(&l.recorded, 1)
	l.mu.Lock()
	l.lastRecorded = tp.CreatedAt
	l.mu.Unlock()

	if l.publisher != nil {
		data, err := json.Marshal(tp)
		if err != nil {
			l.logger.Error().Err(err).Str("touchpoint_id", tp.ID).Msg("failed to marshal touchpoint for feed")
		} else {
			l.publisher.Broadcast(data)
		}
	}

	// Log periodically
	count := atomic.LoadInt64(&l.recorded)
	if count%1000 == 0 {
		l.logger.Info().
			Int64("total_recorded", count).
			Msg("touchpoints recorded")
	}

	return tp, nil
}

// Stats reports ledger ingest counters
func (l *Ledger) Stats() (recorded int64, lastRecorded time.Time) {
	l.mu.RLock()
	lastRecorded = l.lastRecorded
	l.mu.RUnlock()
	return atomic.LoadInt64(&l.recorded), lastRecorded
}
