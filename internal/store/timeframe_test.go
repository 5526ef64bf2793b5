package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/model"
)

func TestTimeframeStore_ValidityDerivesTTL(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ts := NewTimeframeStore(NewMemoryBackend(clk))

	sig := model.EnrichedSignal{
		Signal:     model.SignalCore{Type: model.SignalLong, Timeframe: model.TF5, Quality: model.QualityHigh, AIScore: 7},
		Instrument: model.Instrument{Ticker: "AAPL"},
	}

	ok, err := ts.Put(sig, clk.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	stored, found, err := ts.Get("AAPL", model.TF5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 10, stored.ValidityMinutes)
	assert.Equal(t, clk.Now().Add(10*time.Minute), stored.ExpiresAt)
}

func TestTimeframeStore_ActiveIsHTFFirst(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ts := NewTimeframeStore(NewMemoryBackend(clk))

	for _, tf := range []model.Timeframe{model.TF3, model.TF240, model.TF15} {
		sig := model.EnrichedSignal{
			Signal:     model.SignalCore{Type: model.SignalLong, Timeframe: tf},
			Instrument: model.Instrument{Ticker: "AAPL"},
		}
		_, err := ts.Put(sig, clk.Now())
		require.NoError(t, err)
	}

	active, err := ts.Active("AAPL")
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, model.TF240, active[0].Signal.Signal.Timeframe)
	assert.Equal(t, model.TF15, active[1].Signal.Signal.Timeframe)
	assert.Equal(t, model.TF3, active[2].Signal.Signal.Timeframe)
}
