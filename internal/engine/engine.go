// Package engine implements the DecisionEngine: it gathers the active
// entries from the three stores, builds a MarketContext, runs
// confluence/gates/sizing, and emits a DecisionPacket plus an audit entry.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sawpanic/tradingengine/internal/audit"
	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/gates"
	"github.com/sawpanic/tradingengine/internal/market"
	"github.com/sawpanic/tradingengine/internal/metrics"
	"github.com/sawpanic/tradingengine/internal/model"
	"github.com/sawpanic/tradingengine/internal/store"
)

// DecisionBudget is the soft wall-clock target for one Decide call: the
// engine does not abort past this, but the provider budgets in
// internal/market are sized so the common path comes in well under it.
const DecisionBudget = 2 * time.Second

// Stores bundles the three process-wide singleton stores a decision reads
// from.
type Stores struct {
	Timeframe *store.TimeframeStore
	Phase     *store.PhaseStore
	Trend     *store.TrendStore
}

// Engine wires the stores, the market context builder and the frozen
// config registry into one Decide entrypoint.
type Engine struct {
	stores   Stores
	builder  *market.Builder
	registry *config.Registry
	clock    clock.Clock
	log      zerolog.Logger
	auditLog *audit.Log
	sink     audit.Sink       // optional; nil disables durable persistence
	metrics  *metrics.Registry // optional; nil disables metrics recording
}

// New wires an Engine. sink and metricsRegistry may both be nil — durable
// persistence and metrics recording are both optional add-ons over the
// core Decide path.
func New(stores Stores, builder *market.Builder, registry *config.Registry, clk clock.Clock, auditLog *audit.Log, sink audit.Sink, metricsRegistry *metrics.Registry, log zerolog.Logger) *Engine {
	return &Engine{stores: stores, builder: builder, registry: registry, clock: clk, auditLog: auditLog, sink: sink, metrics: metricsRegistry, log: log}
}

// Decide runs one full evaluation for ticker and returns the resulting
// DecisionPacket. It errors only when reading one of the three stores
// fails: a gate pipeline always terminates in EXECUTE/WAIT/SKIP, and a
// failed provider degrades its MarketContext section rather than failing
// the call.
func (e *Engine) Decide(ctx context.Context, requestID, ticker string) (model.DecisionPacket, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	start := e.clock.Now()
	log := e.log.With().Str("request_id", requestID).Str("ticker", ticker).Str("engine_version", config.EngineVersion).Logger()

	active, err := e.stores.Timeframe.Active(ticker)
	if err != nil {
		return model.DecisionPacket{}, err
	}
	phases, err := e.stores.Phase.Active(ticker)
	if err != nil {
		return model.DecisionPacket{}, err
	}
	trendSnap, hasTrend, err := e.stores.Trend.Get(ticker)
	if err != nil {
		return model.DecisionPacket{}, err
	}
	var trend *model.TrendSnapshot
	if hasTrend {
		trend = &trendSnap
	}

	buildResult := e.builder.Build(ctx, ticker)

	result := gates.Evaluate(gates.Inputs{
		ActiveSignals: active,
		ActivePhases:  phases,
		Trend:         trend,
		Market:        buildResult.Context,
		Matrices:      e.registry.Matrices(),
	})

	packet := toPacket(result, e.registry, e.clock.Now())

	elapsed := e.clock.Now().Sub(start)
	log.Info().
		Str("decision", string(packet.Decision)).
		Dur("elapsed", elapsed).
		Bool("over_budget", elapsed > DecisionBudget).
		Msg("decision evaluated")

	if e.metrics != nil {
		e.metrics.DecisionOutcomes.WithLabelValues(string(packet.Decision)).Inc()
		e.metrics.DecisionDuration.Observe(elapsed.Seconds())
		for _, g := range result.GateResults {
			e.metrics.RecordGateResults(g.Name, g.Passed)
		}
		for provider, outcome := range map[string]market.Outcome{
			"options": buildResult.Options, "stats": buildResult.Stats, "liquidity": buildResult.Liquidity,
		} {
			e.metrics.ProviderCalls.WithLabelValues(provider, string(outcome.Source)).Inc()
		}
	}

	entry := audit.Entry{RequestID: requestID, Ticker: ticker, Packet: packet}
	e.auditLog.Append(entry)
	if e.sink != nil {
		if err := e.sink.Write(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("audit sink write failed")
		}
	}

	return packet, nil
}

// ProviderHealth reports each market data provider's circuit breaker
// state, for the /health endpoint.
func (e *Engine) ProviderHealth() map[string]string {
	return e.builder.BreakerStates()
}

// toPacket converts a gate pipeline Result into the wire-facing, versioned
// DecisionPacket.
func toPacket(r gates.Result, registry *config.Registry, now time.Time) model.DecisionPacket {
	packet := model.DecisionPacket{
		Decision:        r.Decision,
		Direction:       r.Direction,
		Reason:          r.Reason,
		EngineVersion:   registry.Version(),
		ConfigHash:      registry.Hash(),
		ConfluenceScore: r.ConfluenceScore,
		GateResults:     r.GateResults,
		Timestamp:       model.UnixMillis(now),
	}

	if r.Entry != nil {
		packet.EntrySignal = r.Entry.Signal.Entry.Price
	}

	if r.Decision == model.DecisionExecute {
		packet.StopLoss = r.StopLoss
		packet.Target1 = r.Target1
		packet.Target2 = r.Target2
		packet.RecommendedContracts = int(r.Sizing.RecommendedContracts)
		packet.Breakdown = model.MultiplierBreakdown{
			ConfluenceMultiplier:   r.Sizing.ConfluenceMultiplier,
			QualityMultiplier:      r.Sizing.QualityMultiplier,
			HTFAlignmentMultiplier: r.Sizing.HTFAlignmentMultiplier,
			RRMultiplier:           r.Sizing.RRMultiplier,
			VolumeMultiplier:       r.Sizing.VolumeMultiplier,
			TrendMultiplier:        r.Sizing.TrendMultiplier,
			SessionMultiplier:      r.Sizing.SessionMultiplier,
			DayMultiplier:          r.Sizing.DayMultiplier,
			PhaseConfidenceBoost:   r.Sizing.PhaseConfidenceBoost,
			PhasePositionBoost:     r.Sizing.PhasePositionBoost,
			TrendAlignmentBoost:    r.Sizing.TrendAlignmentBoost,
			FinalMultiplier:        r.Sizing.Final,
		}
	}

	return packet
}
