package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/model"
)

func allBullishTrend(ticker string) model.TrendSnapshot {
	tfs := make(map[model.TrendKey]model.TrendTimeframeState, len(model.TrendKeys))
	for _, k := range model.TrendKeys {
		tfs[k] = model.TrendTimeframeState{Direction: model.DirBullish}
	}
	return model.TrendSnapshot{
		Ticker:     ticker,
		Timeframes: tfs,
		Alignment:  model.ComputeAlignment(tfs),
	}
}

func TestTrendStore_RoundTripsAlignment(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	trs := NewTrendStore(NewMemoryBackend(clk))

	snap := allBullishTrend("AAPL")
	ok, err := trs.Put(snap, clk.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	got, found, err := trs.Get("AAPL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.StrengthStrong, got.Alignment.Strength)
	assert.Equal(t, model.DirBullish, got.Alignment.DominantDirection)
	assert.Equal(t, 8, got.Alignment.BullishCount)
}

func TestTrendStore_TTLIsSixtyMinutes(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	trs := NewTrendStore(NewMemoryBackend(clk))

	_, err := trs.Put(allBullishTrend("AAPL"), clk.Now())
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	_, found, err := trs.Get("AAPL")
	require.NoError(t, err)
	assert.True(t, found)

	clk.Advance(2 * time.Minute)
	_, found, err = trs.Get("AAPL")
	require.NoError(t, err)
	assert.False(t, found)
}
