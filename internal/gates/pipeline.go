// Package gates implements the GatePipeline: a fixed-order sequence of
// pass/fail checks that never raises — each gate yields a GateResult and
// the first failing gate short-circuits to WAIT or SKIP.
package gates

import (
	"fmt"

	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/confluence"
	"github.com/sawpanic/tradingengine/internal/model"
	"github.com/sawpanic/tradingengine/internal/sizing"
)

// Inputs is everything one gate pipeline evaluation needs; callers take a
// single consistent snapshot of the three stores before calling Evaluate —
// readers never re-read mid-pipeline.
type Inputs struct {
	ActiveSignals []model.StoredSignal
	ActivePhases  []model.StoredPhase
	Trend         *model.TrendSnapshot
	Market        model.MarketContext
	Matrices      config.Matrices
}

// Result is the outcome of one gate pipeline evaluation.
type Result struct {
	Decision        model.Decision
	Direction       model.SignalType
	Reason          string
	ConfluenceScore float64
	Alignment       config.HTFAlignment
	GateResults     []model.GateResult
	Entry           *model.StoredSignal
	StopLoss        float64
	Target1         float64
	Target2         float64
	Sizing          sizing.Result
}

func gateResult(name string, passed bool, reason string, score float64) model.GateResult {
	return model.GateResult{Name: name, Passed: passed, Reason: reason, Score: score}
}

// Evaluate runs the gate sequence in order and returns the terminal result
// — EXECUTE, WAIT or SKIP — with the full gate-by-gate audit trail.
func Evaluate(in Inputs) Result {
	var results []model.GateResult

	if len(in.ActiveSignals) == 0 {
		results = append(results, gateResult("empty_signals", false, "No active signals", 0))
		return Result{Decision: model.DecisionWait, Reason: "No active signals", GateResults: results}
	}
	results = append(results, gateResult("empty_signals", true, "", 0))

	weights := in.Matrices.ConfluenceWeights
	longScore := confluence.Score(in.ActiveSignals, model.SignalLong, weights)
	shortScore := confluence.Score(in.ActiveSignals, model.SignalShort, weights)

	if longScore == 0 && shortScore == 0 {
		results = append(results, gateResult("dominant_direction", false, "No clear direction", 0))
		return Result{Decision: model.DecisionWait, Reason: "No clear direction", GateResults: results}
	}
	direction, score := confluence.DominantDirection(in.ActiveSignals, weights, in.Matrices.TieBreak)
	results = append(results, gateResult("dominant_direction", true, "", score))

	if !htfBiasPresent(direction, in.ActiveSignals, in.Matrices.Bounds.HTFMinAIScore) {
		results = append(results, gateResult("htf_bias", false, "No valid HTF bias", 0))
		return Result{Decision: model.DecisionWait, Direction: direction, Reason: "No valid HTF bias", ConfluenceScore: score, GateResults: results}
	}
	results = append(results, gateResult("htf_bias", true, "", 0))

	if score < in.Matrices.Bounds.ConfluenceThreshold {
		reason := fmt.Sprintf("Confluence score %.1f below %.0f%% threshold", score, in.Matrices.Bounds.ConfluenceThreshold)
		results = append(results, gateResult("confluence_threshold", false, reason, score))
		return Result{Decision: model.DecisionWait, Direction: direction, Reason: reason, ConfluenceScore: score, GateResults: results}
	}
	results = append(results, gateResult("confluence_threshold", true, "", score))

	entry := selectEntry(direction, in.ActiveSignals)
	if entry == nil {
		results = append(results, gateResult("entry_signal_selection", false, "No entry signal available", 0))
		return Result{Decision: model.DecisionWait, Direction: direction, Reason: "No entry signal available", ConfluenceScore: score, GateResults: results}
	}
	results = append(results, gateResult("entry_signal_selection", true, "", 0))

	if allowed, reason := regimeAllows(direction, in.ActivePhases); !allowed {
		results = append(results, gateResult("regime", false, reason, 0))
		return Result{Decision: model.DecisionSkip, Direction: direction, Reason: reason, ConfluenceScore: score, Entry: entry, GateResults: results}
	}
	results = append(results, gateResult("regime", true, "", 0))

	if ok, reason, structScore := structuralOK(entry.Signal); !ok {
		results = append(results, gateResult("structural", false, reason, structScore))
		return Result{Decision: model.DecisionSkip, Direction: direction, Reason: reason, ConfluenceScore: score, Entry: entry, GateResults: results}
	} else {
		results = append(results, gateResult("structural", true, "", structScore))
	}

	alignment := sizing.HTFAlignment(direction, entry.Signal, in.ActiveSignals, in.ActivePhases)

	if ok, reason, mktScore := marketGateCheck(in.Market, direction, in.Trend, in.Matrices.Bounds); !ok {
		results = append(results, gateResult("market", false, reason, mktScore))
		return Result{Decision: model.DecisionSkip, Direction: direction, Reason: reason, ConfluenceScore: score, Alignment: alignment, Entry: entry, GateResults: results}
	} else {
		results = append(results, gateResult("market", true, "", mktScore))
	}

	if allowed, reason := sessionAllows(entry.ReceivedAt); !allowed {
		results = append(results, gateResult("session", false, reason, 0))
		return Result{Decision: model.DecisionSkip, Direction: direction, Reason: reason, ConfluenceScore: score, Alignment: alignment, Entry: entry, GateResults: results}
	}
	results = append(results, gateResult("session", true, "", 0))

	sizingResult := sizing.Compute(sizing.MultiplierInputs{
		Entry:           entry.Signal,
		Direction:       direction,
		Alignment:       alignment,
		ConfluenceScore: score,
		ActivePhases:    in.ActivePhases,
		Trend:           in.Trend,
	}, in.Matrices)

	if sizingResult.ShouldSkip {
		results = append(results, gateResult("multiplier_floor", false, "Position multiplier below minimum", sizingResult.Raw))
		return Result{
			Decision:        model.DecisionSkip,
			Direction:       direction,
			Reason:          "Position multiplier below minimum",
			ConfluenceScore: score,
			Alignment:       alignment,
			Entry:           entry,
			GateResults:     results,
			Sizing:          sizingResult,
		}
	}
	results = append(results, gateResult("multiplier_floor", true, "", sizingResult.Final))

	stop, t1, t2 := selectStopTargets(direction, in.ActiveSignals)

	return Result{
		Decision:        model.DecisionExecute,
		Direction:       direction,
		ConfluenceScore: score,
		Alignment:       alignment,
		Entry:           entry,
		StopLoss:        stop,
		Target1:         t1,
		Target2:         t2,
		GateResults:     results,
		Sizing:          sizingResult,
	}
}

func htfBiasPresent(direction model.SignalType, active []model.StoredSignal, minAIScore float64) bool {
	for _, s := range active {
		tf := s.Signal.Signal.Timeframe
		if (tf == model.TF240 || tf == model.TF60) && s.Signal.Signal.Type == direction && s.Signal.Signal.AIScore >= minAIScore {
			return true
		}
	}
	return false
}

// selectEntry walks timeframes HTF-first (240→60→30→15→5→3 priority
// order) and returns the first active signal matching direction.
func selectEntry(direction model.SignalType, active []model.StoredSignal) *model.StoredSignal {
	for _, tf := range model.ValidTimeframes {
		for i := range active {
			if active[i].Signal.Signal.Timeframe == tf && active[i].Signal.Signal.Type == direction {
				return &active[i]
			}
		}
	}
	return nil
}

func regimePhaseNumber(phases []model.StoredPhase) (model.PhaseNumber, bool) {
	for _, p := range phases {
		if p.Phase.Timeframe.TFRole != model.RoleRegime {
			continue
		}
		switch model.RegimePhaseName(p.Phase.Event.Name) {
		case model.PhaseAccumulation:
			return model.PhaseNumAccumulation, true
		case model.PhaseMarkup:
			return model.PhaseNumMarkup, true
		case model.PhaseDistribution:
			return model.PhaseNumDistribution, true
		case model.PhaseMarkdown:
			return model.PhaseNumMarkdown, true
		}
	}
	return 0, false
}

// regimeAllows looks up the active REGIME-role phase's allowed directions.
// With no regime phase active, there is nothing to restrict against, so
// the gate passes — an absent regime read is not grounds to SKIP.
func regimeAllows(direction model.SignalType, phases []model.StoredPhase) (bool, string) {
	num, ok := regimePhaseNumber(phases)
	if !ok {
		return true, ""
	}
	for _, d := range num.AllowedDirections() {
		if d == direction {
			return true, ""
		}
	}
	return false, fmt.Sprintf("%s not allowed in regime phase %d (%s)", direction, num, num.Name())
}

// structuralOK applies the structural gate using the entry signal's own
// StratExec fields. ExecutionQuality is empty on every non-STRAT_EXEC
// signal, so an empty value is read as "no structural data available" and
// passes neutrally, mirroring the market gate's FALLBACK pass-through.
func structuralOK(entry model.EnrichedSignal) (bool, string, float64) {
	if entry.ExecutionQuality == "" {
		return true, "No execution-quality data available", 50
	}
	if !entry.SetupValid {
		return false, "Setup not valid", 0
	}
	if !entry.LiquidityOK {
		return false, "Liquidity check failed", 0
	}
	if entry.ExecutionQuality != string(model.ExecutionA) && entry.ExecutionQuality != string(model.ExecutionB) {
		return false, "Execution quality below B", 0
	}
	if entry.Signal.AIScore < 7.0 {
		return false, "AI score below structural minimum", 0
	}
	return true, "", 100
}

// marketGateCheck applies the provider-backed checks. Any section still on
// FALLBACK means there is no live data to gate on, so the gate passes
// neutrally with a mid score rather than blocking the decision.
func marketGateCheck(mc model.MarketContext, direction model.SignalType, trend *model.TrendSnapshot, bounds config.Bounds) (bool, string, float64) {
	if mc.OptionsData.Source == model.SourceFallback || mc.MarketStats.Source == model.SourceFallback || mc.LiquidityData.Source == model.SourceFallback {
		return true, "No market data available", 50
	}

	if mc.LiquidityData.SpreadBps > bounds.MaxSpreadBps {
		return false, "Spread too wide", 0
	}
	if mc.MarketStats.ATR14 > bounds.MaxATRSpike {
		return false, "ATR too high", 0
	}
	if mc.LiquidityData.DepthScore < bounds.MinDepthScore {
		return false, "Insufficient depth", 0
	}

	conflict := (mc.OptionsData.GammaBias == model.GammaPositive && direction == model.SignalShort) ||
		(mc.OptionsData.GammaBias == model.GammaNegative && direction == model.SignalLong)
	if conflict && alignmentPctInDirection(trend, direction) < bounds.GammaOverrideAlignPct {
		return false, "Gamma bias conflicts with trade direction", 0
	}

	return true, "", 100
}

func alignmentPctInDirection(trend *model.TrendSnapshot, direction model.SignalType) float64 {
	if trend == nil {
		return 0
	}
	if direction == model.SignalLong {
		return float64(trend.Alignment.BullishCount) / 8 * 100
	}
	return float64(trend.Alignment.BearishCount) / 8 * 100
}

// selectStopTargets picks the tightest stop and most favorable targets
// across every active signal aligned with direction: highest stop/targets
// for LONG, lowest for SHORT.
func selectStopTargets(direction model.SignalType, active []model.StoredSignal) (stop, target1, target2 float64) {
	first := true
	for _, s := range active {
		if s.Signal.Signal.Type != direction {
			continue
		}
		e := s.Signal.Entry
		if first {
			stop, target1, target2 = e.StopLoss, e.Target1, e.Target2
			first = false
			continue
		}
		if direction == model.SignalLong {
			if e.StopLoss > stop {
				stop = e.StopLoss
			}
			if e.Target1 > target1 {
				target1 = e.Target1
			}
			if e.Target2 > target2 {
				target2 = e.Target2
			}
		} else {
			if e.StopLoss < stop {
				stop = e.StopLoss
			}
			if e.Target1 < target1 {
				target1 = e.Target1
			}
			if e.Target2 < target2 {
				target2 = e.Target2
			}
		}
	}
	return
}
