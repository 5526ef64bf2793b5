package httpapi

import (
	"net/http"
)

// handleHealth answers GET /health with liveness, per-source ingestion
// counters, and provider circuit state. Status is always "healthy" while the
// handler answers; the counters and circuit states come from live state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var providers []ProviderHealth
	if s.eng != nil {
		for name, state := range s.eng.ProviderHealth() {
			providers = append(providers, ProviderHealth{Name: name, Status: state})
		}
	}

	resp := HealthResponse{
		Status:        "healthy",
		Timestamp:     s.clock.Now().UTC(),
		EngineVersion: s.registry.Version(),
		ConfigHash:    s.registry.Hash(),
		Sources:       s.stats.snapshot(),
		Providers:     providers,
	}
	s.writeJSON(w, http.StatusOK, resp)
}
