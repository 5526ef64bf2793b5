package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sawpanic/tradingengine/internal/apperr"
	"github.com/sawpanic/tradingengine/internal/model"
)

// TimeframeStore holds the latest EnrichedSignal per (ticker, timeframe).
type TimeframeStore struct {
	b Backend
}

// NewTimeframeStore wraps backend b. Pass NewMemoryBackend(clk) for the
// default in-process store, or a *RedisBackend to share state across
// replicas.
func NewTimeframeStore(b Backend) *TimeframeStore {
	return &TimeframeStore{b: b}
}

func timeframeKey(ticker string, tf model.Timeframe) string {
	return fmt.Sprintf("signal|%s|%d", ticker, tf)
}

// Put stores sig, computing expires_at from its timeframe's fixed validity
// window. Returns false if an out-of-order write was dropped.
func (t *TimeframeStore) Put(sig model.EnrichedSignal, receivedAt time.Time) (bool, error) {
	validity := sig.Signal.Timeframe.ValidityMinutes()
	ttl := time.Duration(validity) * time.Minute
	key := timeframeKey(sig.Instrument.Ticker, sig.Signal.Timeframe)

	stored := model.StoredSignal{
		Signal:          sig,
		ReceivedAt:      receivedAt,
		ExpiresAt:       receivedAt.Add(ttl),
		ValidityMinutes: validity,
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return false, apperr.Internal("failed to encode signal", err)
	}
	return t.b.Put(key, payload, ttl, receivedAt)
}

// Get returns the live signal for (ticker, tf), if any.
func (t *TimeframeStore) Get(ticker string, tf model.Timeframe) (model.StoredSignal, bool, error) {
	raw, ok, err := t.b.Get(timeframeKey(ticker, tf))
	if err != nil || !ok {
		return model.StoredSignal{}, false, err
	}
	var stored model.StoredSignal
	if err := json.Unmarshal(raw, &stored); err != nil {
		return model.StoredSignal{}, false, apperr.Internal("failed to decode stored signal", err)
	}
	return stored, true, nil
}

// Active returns every live signal for ticker across all timeframes, in
// HTF-first priority order.
func (t *TimeframeStore) Active(ticker string) ([]model.StoredSignal, error) {
	var out []model.StoredSignal
	for _, tf := range model.ValidTimeframes {
		v, ok, err := t.Get(ticker, tf)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}
