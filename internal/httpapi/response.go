package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sawpanic/tradingengine/internal/apperr"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeAppError maps an apperr.Error to the wire ErrorResponse via its own
// Status(), never a per-handler type switch.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err *apperr.Error) {
	resp := ErrorResponse{
		Error:     string(err.Code),
		Message:   err.Message,
		Details:   err.Details,
		RequestID: requestIDFrom(r),
		Timestamp: s.clock.Now().UTC(),
	}
	s.writeJSON(w, err.Status(), resp)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestIDFrom(r),
		Timestamp: s.clock.Now().UTC(),
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, "NOT_FOUND", "the requested endpoint does not exist")
}
