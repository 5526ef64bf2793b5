package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradingengine/internal/audit"
	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/engine"
	"github.com/sawpanic/tradingengine/internal/market"
	"github.com/sawpanic/tradingengine/internal/metrics"
	"github.com/sawpanic/tradingengine/internal/model"
	"github.com/sawpanic/tradingengine/internal/normalize"
	"github.com/sawpanic/tradingengine/internal/store"
)

type fakeOptions struct{}

func (fakeOptions) Options(ctx context.Context, ticker string) (market.Options, error) {
	return market.Options{GammaBias: model.GammaNeutral}, nil
}

type fakeStats struct{}

func (fakeStats) Stats(ctx context.Context, ticker string) (market.Stats, error) {
	return market.Stats{ATR14: 1.0}, nil
}

type fakeLiquidity struct{}

func (fakeLiquidity) Liquidity(ctx context.Context, ticker string) (market.Liquidity, error) {
	return market.Liquidity{SpreadBps: 5, DepthScore: 80}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	clk := clock.NewFixed(time.Date(2024, 1, 9, 13, 0, 0, 0, time.UTC))
	backend := store.NewMemoryBackend(clk)
	stores := engine.Stores{
		Timeframe: store.NewTimeframeStore(backend),
		Phase:     store.NewPhaseStore(backend),
		Trend:     store.NewTrendStore(backend),
	}
	builder := market.NewBuilder(fakeOptions{}, fakeStats{}, fakeLiquidity{})
	registry := config.NewRegistry(config.Default())
	normalizer := normalize.New(clk.Now)
	metricsRegistry := metrics.NewRegistry(prometheus.NewRegistry())

	eng := engine.New(stores, builder, registry, clk, audit.NewLog(16), nil, metricsRegistry, zerolog.Nop())

	cfg := DefaultServerConfig()
	srv := &Server{
		router:     mux.NewRouter(),
		config:     cfg,
		log:        zerolog.Nop(),
		normalizer: normalizer,
		stores:     stores,
		eng:        eng,
		metrics:    metricsRegistry,
		registry:   registry,
		clock:      clk,
		replay:     newReplayGuard(2*time.Second, 16),
		stats:      newIngestionStats(),
		stream:     newBroadcaster(),
	}
	srv.setupRoutes()
	return srv
}

func TestHandleWebhook_TradingViewSignalStoresAndReturnsEnvelope(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{
		"signal": {"type": "LONG", "timeframe": 60, "quality": "HIGH", "ai_score": 8.5},
		"instrument": {"exchange": "NASDAQ", "ticker": "AAPL", "current_price": 100},
		"entry": {"price": 100, "stop_loss": 95, "target_1": 110, "target_2": 120}
	}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/signals", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), requestIDKey, "req-1"))
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"source":"TRADINGVIEW_SIGNAL"`)

	active, err := srv.stores.Timeframe.Active("AAPL")
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestHandleWebhook_DuplicateWithinWindowSkipsStoreWrite(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{
		"signal": {"type": "LONG", "timeframe": 60, "quality": "HIGH", "ai_score": 8.5},
		"instrument": {"exchange": "NASDAQ", "ticker": "MSFT", "current_price": 100},
		"entry": {"price": 100, "stop_loss": 95, "target_1": 110, "target_2": 120}
	}`)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/signals", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		return rec
	}

	first := post()
	require.Equal(t, http.StatusOK, first.Code)

	second := post()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), `"success":true`)

	active, err := srv.stores.Timeframe.Active("MSFT")
	require.NoError(t, err)
	require.Len(t, active, 1, "the duplicate delivery must not land a second entry")
}

func TestHandleWebhook_InvalidJSONReturnsValidationError(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/signals", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHandleTrendCurrent_NoSnapshotReturns404(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/trend/current?ticker=MSFT", nil)
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSignalsCurrent_MissingTickerIsValidationError(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/signals/current", nil)
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth_ReportsIngestionCounters(t *testing.T) {
	srv := newTestServer(t)
	srv.stats.record("TRADINGVIEW_SIGNAL", 1)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TRADINGVIEW_SIGNAL")
}

func TestReplayGuard_SuppressesDuplicateWithinWindow(t *testing.T) {
	g := newReplayGuard(time.Second, 4)
	now := time.Now()

	assert.False(t, g.seenRecently("k", now))
	assert.True(t, g.seenRecently("k", now.Add(100*time.Millisecond)))
	assert.False(t, g.seenRecently("k", now.Add(2*time.Second)))
}
