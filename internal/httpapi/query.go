package httpapi

import (
	"net/http"

	"github.com/sawpanic/tradingengine/internal/apperr"
	"github.com/sawpanic/tradingengine/internal/model"
	"github.com/sawpanic/tradingengine/internal/store"
)

// handleSignalsCurrent answers GET /signals/current?ticker= with every
// active signal for ticker, sorted 4H→3M (store.Active already returns
// them in that order per model.ValidTimeframes).
func (s *Server) handleSignalsCurrent(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		s.writeAppError(w, r, apperr.Validation("ticker is required", nil))
		return
	}

	active, err := s.stores.Timeframe.Active(ticker)
	if err != nil {
		s.writeAppError(w, r, asAppErr(err))
		return
	}

	s.writeJSON(w, http.StatusOK, SignalsCurrentResponse{
		Ticker:        ticker,
		Signals:       active,
		EngineVersion: s.registry.Version(),
		ConfigHash:    s.registry.Hash(),
	})
}

// handlePhaseCurrent answers GET /phase/current?symbol= with the active
// phases for every TF role and the REGIME-role phase. The response carries
// no alignment summary.
func (s *Server) handlePhaseCurrent(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("symbol")
	if ticker == "" {
		s.writeAppError(w, r, apperr.Validation("symbol is required", nil))
		return
	}

	active, err := s.stores.Phase.Active(ticker)
	if err != nil {
		s.writeAppError(w, r, asAppErr(err))
		return
	}

	var regime interface{}
	if regimePhase, ok, rErr := s.stores.Phase.Regime(ticker); rErr == nil && ok {
		regime = regimePhase
	}

	s.writeJSON(w, http.StatusOK, PhaseCurrentResponse{
		Ticker:        ticker,
		Phases:        active,
		Regime:        regime,
		EngineVersion: s.registry.Version(),
		ConfigHash:    s.registry.Hash(),
	})
}

// handleTrendCurrent answers GET /trend/current?ticker= with the snapshot
// and alignment block, 404 when no snapshot is live.
func (s *Server) handleTrendCurrent(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		s.writeAppError(w, r, apperr.Validation("ticker is required", nil))
		return
	}

	snap, ok, err := s.stores.Trend.Get(ticker)
	if err != nil {
		s.writeAppError(w, r, asAppErr(err))
		return
	}
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no trend snapshot for ticker")
		return
	}

	s.writeJSON(w, http.StatusOK, TrendCurrentResponse{
		Snapshot:      snap,
		Alignment:     snap.Alignment,
		TTLMinutes:    int(store.TrendTTL.Minutes()),
		ActiveTickers: 1,
		LastUpdate:    model.UnixMillis(snap.Timestamp),
		EngineVersion: s.registry.Version(),
		ConfigHash:    s.registry.Hash(),
	})
}

func asAppErr(err error) *apperr.Error {
	if ae, ok := err.(*apperr.Error); ok {
		return ae
	}
	return apperr.Internal("store operation failed", err)
}
