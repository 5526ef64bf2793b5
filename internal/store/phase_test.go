package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/model"
)

func TestPhaseStore_TTLFromTimeDecay(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ps := NewPhaseStore(NewMemoryBackend(clk))

	phase := model.PhaseEvent{
		Instrument: model.Instrument{Ticker: "AAPL"},
		Timeframe:  model.PhaseTimeframe{TFRole: model.RoleRegime},
		RiskHints:  model.RiskHints{TimeDecayMinutes: 30},
	}

	ok, err := ps.Put(phase, clk.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(29 * time.Minute)
	_, found, err := ps.Regime("AAPL")
	require.NoError(t, err)
	assert.True(t, found)

	clk.Advance(2 * time.Minute)
	_, found, err = ps.Regime("AAPL")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPhaseStore_RolesAreIndependentKeys(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ps := NewPhaseStore(NewMemoryBackend(clk))

	regime := model.PhaseEvent{
		Instrument: model.Instrument{Ticker: "AAPL"},
		Timeframe:  model.PhaseTimeframe{TFRole: model.RoleRegime},
		RiskHints:  model.RiskHints{TimeDecayMinutes: 60},
	}
	bias := model.PhaseEvent{
		Instrument: model.Instrument{Ticker: "AAPL"},
		Timeframe:  model.PhaseTimeframe{TFRole: model.RoleBias},
		RiskHints:  model.RiskHints{TimeDecayMinutes: 60},
	}

	_, err := ps.Put(regime, clk.Now())
	require.NoError(t, err)
	_, err = ps.Put(bias, clk.Now())
	require.NoError(t, err)

	active, err := ps.Active("AAPL")
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
