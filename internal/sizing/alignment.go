// Package sizing implements the HTF-alignment determination and the
// 11-stage multiplicative position-sizing pipeline.
package sizing

import (
	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/model"
)

// HTFAlignment determines the 4H/1H alignment tier for direction against
// the active timeframe signals and phase events.
func HTFAlignment(direction model.SignalType, entry model.EnrichedSignal, activeSignals []model.StoredSignal, activePhases []model.StoredPhase) config.HTFAlignment {
	h4 := timeframeAligned(model.TF240, direction, activeSignals) ||
		biasMatches(entry.MTFContext.Bias4H, direction) ||
		phaseImplicationMatches(direction, activePhases)

	h1 := timeframeAligned(model.TF60, direction, activeSignals) ||
		biasMatches(entry.MTFContext.Bias1H, direction)

	counter4h := entry.MTFContext.Bias4H != "" && entry.MTFContext.Bias4H != direction
	counter1h := entry.MTFContext.Bias1H != "" && entry.MTFContext.Bias1H != direction

	switch {
	case counter4h && counter1h:
		// An explicit 4h+1h bias conflict overrides same-timeframe signal
		// self-evidence: a LONG signal at 240/60 doesn't make h4/h1 "aligned"
		// if the higher-timeframe bias itself says SHORT.
		return config.AlignmentCounter
	case h4 && h1:
		return config.AlignmentPerfect
	case h4 || h1:
		return config.AlignmentGood
	default:
		return config.AlignmentWeak
	}
}

func timeframeAligned(tf model.Timeframe, direction model.SignalType, active []model.StoredSignal) bool {
	for _, s := range active {
		if s.Signal.Signal.Timeframe == tf && s.Signal.Signal.Type == direction && s.Signal.Signal.AIScore >= 6 {
			return true
		}
	}
	return false
}

func biasMatches(bias model.SignalType, direction model.SignalType) bool {
	return bias != "" && bias == direction
}

func phaseImplicationMatches(direction model.SignalType, phases []model.StoredPhase) bool {
	want := model.ImplicationUpside
	if direction == model.SignalShort {
		want = model.ImplicationDownside
	}
	for _, p := range phases {
		role := p.Phase.Timeframe.TFRole
		if (role == model.RoleRegime || role == model.RoleBias) && p.Phase.Event.DirectionalImplication == want {
			return true
		}
	}
	return false
}
