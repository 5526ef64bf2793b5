// Package confluence computes the weighted multi-timeframe directional
// score that feeds both the gate pipeline's threshold check and the
// position sizer's confluence multiplier.
package confluence

import (
	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/model"
)

// Direction is LONG, SHORT, or "none" when active is empty.
type Direction = model.SignalType

const DirectionNone model.SignalType = "NONE"

// TimeframeContribution is one row of a Breakdown.
type TimeframeContribution struct {
	Timeframe    model.Timeframe
	Aligned      bool
	Weight       float64
	Contribution float64
}

// Breakdown reports the per-timeframe composition of a confluence score.
type Breakdown struct {
	Contributions       []TimeframeContribution
	AlignedTimeframes   []model.Timeframe
	MisalignedTimeframes []model.Timeframe
}

// Score computes 100 × Σ{ w(tf) : active[tf].type == direction } over the
// weights in weights. Timeframes absent from active contribute nothing.
func Score(active []model.StoredSignal, direction Direction, weights config.ConfluenceWeights) float64 {
	var sum float64
	for _, s := range active {
		if s.Signal.Signal.Type == direction {
			sum += weights[s.Signal.Signal.Timeframe]
		}
	}
	return 100 * sum
}

// DominantDirection returns whichever of LONG/SHORT scores higher, with
// ties broken per tieBreak (defaults to LONG). Empty input returns
// (DirectionNone, 0).
func DominantDirection(active []model.StoredSignal, weights config.ConfluenceWeights, tieBreak config.TieBreak) (Direction, float64) {
	if len(active) == 0 {
		return DirectionNone, 0
	}

	longScore := Score(active, model.SignalLong, weights)
	shortScore := Score(active, model.SignalShort, weights)

	switch {
	case longScore > shortScore:
		return model.SignalLong, longScore
	case shortScore > longScore:
		return model.SignalShort, shortScore
	default:
		if tieBreak == config.TieBreakShort {
			return model.SignalShort, shortScore
		}
		return model.SignalLong, longScore
	}
}

// Explain builds the per-timeframe breakdown for direction D. Σ
// contributions equals Score(active, direction, weights).
func Explain(active []model.StoredSignal, direction Direction, weights config.ConfluenceWeights) Breakdown {
	var b Breakdown
	for _, tf := range model.ValidTimeframes {
		weight := weights[tf]
		var stored *model.StoredSignal
		for i := range active {
			if active[i].Signal.Signal.Timeframe == tf {
				stored = &active[i]
				break
			}
		}
		if stored == nil {
			continue
		}

		aligned := stored.Signal.Signal.Type == direction
		contribution := 0.0
		if aligned {
			contribution = 100 * weight
			b.AlignedTimeframes = append(b.AlignedTimeframes, tf)
		} else {
			b.MisalignedTimeframes = append(b.MisalignedTimeframes, tf)
		}

		b.Contributions = append(b.Contributions, TimeframeContribution{
			Timeframe:    tf,
			Aligned:      aligned,
			Weight:       weight,
			Contribution: contribution,
		})
	}
	return b
}
