package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/engine"
	"github.com/sawpanic/tradingengine/internal/metrics"
	"github.com/sawpanic/tradingengine/internal/normalize"
)

// MaxWebhookBodyBytes is the inbound body cap.
const MaxWebhookBodyBytes = 1 << 20

// ServerConfig holds the transport-level, ops-facing settings — not
// to be confused with the frozen, product-facing ConfigRegistry.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	ReplayWindow   time.Duration
}

// DefaultServerConfig returns the default ServerConfig, honoring the
// HTTP_PORT environment variable when set.
func DefaultServerConfig() ServerConfig {
	port := 8080
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           port,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: engine.DecisionBudget + 3*time.Second,
		ReplayWindow:   2 * time.Second,
	}
}

// Server is the httpapi boundary: webhook ingestion, query endpoints,
// health, metrics and the decision broadcast stream.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	config     ServerConfig
	log        zerolog.Logger

	normalizer *normalize.Normalizer
	stores     engine.Stores
	eng        *engine.Engine
	metrics    *metrics.Registry
	registry   *config.Registry
	clock      clock.Clock

	replay *replayGuard
	stats  *ingestionStats
	stream *broadcaster
}

// NewServer wires a Server. metricsRegistry may be nil to disable the
// /metrics endpoint and metric recording.
func NewServer(cfg ServerConfig, normalizer *normalize.Normalizer, stores engine.Stores, eng *engine.Engine, metricsRegistry *metrics.Registry, registry *config.Registry, clk clock.Clock, log zerolog.Logger) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d is busy or unavailable: %w", cfg.Port, err)
	}
	listener.Close()

	s := &Server{
		router:     mux.NewRouter(),
		config:     cfg,
		log:        log,
		normalizer: normalizer,
		stores:     stores,
		eng:        eng,
		metrics:    metricsRegistry,
		registry:   registry,
		clock:      clk,
		replay:     newReplayGuard(cfg.ReplayWindow, 4096),
		stats:      newIngestionStats(),
		stream:     newBroadcaster(),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.corsMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	webhooks := api.PathPrefix("/webhooks").Subrouter()
	webhooks.Use(maxBodyMiddleware(MaxWebhookBodyBytes))
	webhooks.HandleFunc("/signals", s.handleWebhook("signals")).Methods(http.MethodPost)
	webhooks.HandleFunc("/saty-phase", s.handleWebhook("saty-phase")).Methods(http.MethodPost)
	webhooks.HandleFunc("/trend", s.handleWebhook("trend")).Methods(http.MethodPost)
	webhooks.HandleFunc("/strat-exec", s.handleWebhook("strat-exec")).Methods(http.MethodPost)

	api.HandleFunc("/signals/current", s.handleSignalsCurrent).Methods(http.MethodGet)
	api.HandleFunc("/phase/current", s.handlePhaseCurrent).Methods(http.MethodGet)
	api.HandleFunc("/trend/current", s.handleTrendCurrent).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.metrics != nil {
		s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/stream/decisions", s.stream.ServeHTTP)
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Start begins serving; it blocks until the server stops or errors.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting http server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the listen address, for tests and logging.
func (s *Server) Address() string {
	return s.httpServer.Addr
}
