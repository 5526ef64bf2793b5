package store

import (
	"encoding/json"
	"time"

	"github.com/sawpanic/tradingengine/internal/apperr"
	"github.com/sawpanic/tradingengine/internal/model"
)

// TrendStore holds the latest 8-timeframe TrendSnapshot per ticker. TTL is
// fixed at 60 minutes.
type TrendStore struct {
	b   Backend
	ttl time.Duration
}

const TrendTTL = 60 * time.Minute

func NewTrendStore(b Backend) *TrendStore {
	return &TrendStore{b: b, ttl: TrendTTL}
}

func trendKey(ticker string) string { return "trend|" + ticker }

// Put stores snap, which must already carry its precomputed Alignment
// (model.ComputeAlignment is called by the normalizer at conversion time,
// not here, so the store stays a pure keeper of state).
func (t *TrendStore) Put(snap model.TrendSnapshot, receivedAt time.Time) (bool, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return false, apperr.Internal("failed to encode trend snapshot", err)
	}
	return t.b.Put(trendKey(snap.Ticker), payload, t.ttl, receivedAt)
}

func (t *TrendStore) Get(ticker string) (model.TrendSnapshot, bool, error) {
	raw, ok, err := t.b.Get(trendKey(ticker))
	if err != nil || !ok {
		return model.TrendSnapshot{}, false, err
	}
	var snap model.TrendSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.TrendSnapshot{}, false, apperr.Internal("failed to decode trend snapshot", err)
	}
	return snap, true, nil
}
