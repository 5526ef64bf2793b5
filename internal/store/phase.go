package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sawpanic/tradingengine/internal/apperr"
	"github.com/sawpanic/tradingengine/internal/model"
)

// PhaseStore holds the latest PhaseEvent per (ticker, tf_role).
type PhaseStore struct {
	b Backend
}

func NewPhaseStore(b Backend) *PhaseStore {
	return &PhaseStore{b: b}
}

func phaseKey(ticker string, role model.TFRole) string {
	return fmt.Sprintf("phase|%s|%s", ticker, role)
}

// Put stores phase, deriving its TTL from risk_hints.time_decay_minutes.
func (p *PhaseStore) Put(phase model.PhaseEvent, receivedAt time.Time) (bool, error) {
	ttl := time.Duration(phase.RiskHints.TimeDecayMinutes) * time.Minute
	key := phaseKey(phase.Instrument.Ticker, phase.Timeframe.TFRole)

	stored := model.StoredPhase{
		Phase:      phase,
		ReceivedAt: receivedAt,
		ExpiresAt:  receivedAt.Add(ttl),
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return false, apperr.Internal("failed to encode phase", err)
	}
	return p.b.Put(key, payload, ttl, receivedAt)
}

func (p *PhaseStore) Get(ticker string, role model.TFRole) (model.StoredPhase, bool, error) {
	raw, ok, err := p.b.Get(phaseKey(ticker, role))
	if err != nil || !ok {
		return model.StoredPhase{}, false, err
	}
	var stored model.StoredPhase
	if err := json.Unmarshal(raw, &stored); err != nil {
		return model.StoredPhase{}, false, apperr.Internal("failed to decode stored phase", err)
	}
	return stored, true, nil
}

// Active returns every live phase event for ticker across all TF roles.
func (p *PhaseStore) Active(ticker string) ([]model.StoredPhase, error) {
	roles := []model.TFRole{model.RoleRegime, model.RoleBias, model.RoleSetupFormation, model.RoleStructural}
	var out []model.StoredPhase
	for _, r := range roles {
		v, ok, err := p.Get(ticker, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Regime returns the most recent REGIME-role phase for ticker, used by the
// /phase/current query handler.
func (p *PhaseStore) Regime(ticker string) (model.StoredPhase, bool, error) {
	return p.Get(ticker, model.RoleRegime)
}
