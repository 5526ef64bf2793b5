package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sawpanic/tradingengine/internal/apperr"
	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/model"
	"github.com/sawpanic/tradingengine/internal/normalize"
)

// handleWebhook returns the POST handler for one of the four inbound
// routes. routeSource is only used for logging — the
// actual classification is the Normalizer's: a payload posted to
// the wrong route is still routed by its own shape, not rejected by path.
func (s *Server) handleWebhook(routeSource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		requestID := requestIDFrom(r)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				s.writeAppError(w, r, apperr.Validation("request body exceeds 1MB limit", nil))
				return
			}
			s.writeAppError(w, r, apperr.Internal("failed to read request body", err))
			return
		}

		s.log.Debug().
			Str("request_id", requestID).
			Str("route", routeSource).
			Int("body_bytes", len(body)).
			Msg("webhook received")

		result, appErr := s.normalizer.Normalize(body)
		if appErr != nil {
			appErr.RequestID = requestID
			if s.metrics != nil {
				s.metrics.NormalizerRejections.WithLabelValues(string(appErr.Code)).Inc()
			}
			s.writeAppError(w, r, appErr)
			return
		}

		ticker, replayKey := resultKey(result)

		if s.replay.seenRecently(replayKey, start) {
			s.log.Debug().Str("request_id", requestID).Str("replay_key", replayKey).Msg("duplicate webhook suppressed, store write skipped")
			s.writeJSON(w, http.StatusOK, WebhookResponse{
				Success:        true,
				Source:         string(result.Source),
				ProcessingTime: s.clock.Now().Sub(start).Milliseconds(),
				RequestID:      requestID,
				EngineVersion:  config.EngineVersion,
			})
			return
		}

		if storeErr := s.applyResult(result, start); storeErr != nil {
			s.writeAppError(w, r, apperr.Internal("failed to persist normalized payload", storeErr))
			return
		}

		s.stats.record(string(result.Source), model.UnixMillis(start))
		if s.metrics != nil {
			s.metrics.WebhookIngested.WithLabelValues(string(result.Source)).Inc()
			storeName := "timeframe"
			if result.Phase != nil {
				storeName = "phase"
			} else if result.Trend != nil {
				storeName = "trend"
			}
			s.metrics.StorePuts.WithLabelValues(storeName).Inc()
		}

		if ticker != "" {
			go s.decideAndBroadcast(ticker)
		}

		s.writeJSON(w, http.StatusOK, WebhookResponse{
			Success:        true,
			Source:         string(result.Source),
			ProcessingTime: s.clock.Now().Sub(start).Milliseconds(),
			RequestID:      requestID,
			EngineVersion:  config.EngineVersion,
		})
	}
}

// resultKey derives the ticker and replay-guard key for whichever of
// Signal/Phase/Trend the Normalizer populated, without touching a store —
// the replay guard must see this before any write happens.
func resultKey(result *normalize.Result) (ticker, replayKey string) {
	switch {
	case result.Signal != nil:
		sig := result.Signal
		ticker = sig.Instrument.Ticker
		replayKey = replayKeyFor(string(result.Source), ticker, int(sig.Signal.Timeframe), sig.Signal.BarTime.UnixMilli())
	case result.Phase != nil:
		phase := result.Phase
		ticker = phase.Instrument.Ticker
		replayKey = replayKeyFor(string(result.Source), ticker, int(phase.Timeframe.Timeframe), phase.Meta.GeneratedAt.UnixMilli())
	case result.Trend != nil:
		trend := result.Trend
		ticker = trend.Ticker
		replayKey = replayKeyFor(string(result.Source), ticker, 0, trend.Timestamp.UnixMilli())
	}
	return ticker, replayKey
}

// applyResult stores whichever of Signal/Phase/Trend the Normalizer
// populated. Callers must have already consulted the replay guard —
// this never skips a write on its own.
func (s *Server) applyResult(result *normalize.Result, receivedAt time.Time) (err error) {
	switch {
	case result.Signal != nil:
		_, err = s.stores.Timeframe.Put(*result.Signal, receivedAt)
	case result.Phase != nil:
		_, err = s.stores.Phase.Put(*result.Phase, receivedAt)
	case result.Trend != nil:
		_, err = s.stores.Trend.Put(*result.Trend, receivedAt)
	}
	return err
}

// decideAndBroadcast runs one decision for ticker and fans it out to
// connected /stream/decisions clients. It never blocks the webhook
// response — callers launch it in its own goroutine.
func (s *Server) decideAndBroadcast(ticker string) {
	if s.eng == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RequestTimeout)
	defer cancel()

	packet, err := s.eng.Decide(ctx, "", ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("post-webhook decision failed")
		return
	}
	s.stream.Broadcast(packet)
}

func replayKeyFor(source, ticker string, tf int, barTime int64) string {
	return fmt.Sprintf("%s|%s|%d|%d", source, ticker, tf, barTime)
}
