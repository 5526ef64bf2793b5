package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/model"
)

func baseEntry() model.EnrichedSignal {
	return model.EnrichedSignal{
		Signal: model.SignalCore{Type: model.SignalLong, Quality: model.QualityHigh, AIScore: 8},
		Risk:   model.Risk{RRRatioT1: 3.0, RecommendedContracts: 10},
		MarketContext: model.SignalMarketContext{VolumeVsAvg: 1.0},
		Trend:         model.Trend{Strength: 70},
		TimeContext:   model.TimeContext{MarketSession: model.SessionMidday, DayOfWeek: model.Tuesday},
	}
}

func TestCompute_NeutralInputsStayWithinBounds(t *testing.T) {
	m := config.Default()
	result := Compute(MultiplierInputs{
		Entry:           baseEntry(),
		Direction:       model.SignalLong,
		Alignment:       config.AlignmentGood,
		ConfluenceScore: 65,
	}, m)

	assert.GreaterOrEqual(t, result.Final, m.Bounds.PositionMultiplierMin)
	assert.LessOrEqual(t, result.Final, m.Bounds.PositionMultiplierMax)
	assert.GreaterOrEqual(t, result.RecommendedContracts, 1.0)
}

func TestCompute_CounterAlignmentDragsTowardSkip(t *testing.T) {
	m := config.Default()
	entry := baseEntry()
	entry.Risk.RRRatioT1 = 1.0 // below lowest RR tier -> floor multiplier
	entry.MarketContext.VolumeVsAvg = 0.1

	result := Compute(MultiplierInputs{
		Entry:           entry,
		Direction:       model.SignalLong,
		Alignment:       config.AlignmentCounter,
		ConfluenceScore: 50,
	}, m)

	assert.Less(t, result.Raw, m.Bounds.PositionMultiplierMin)
	assert.True(t, result.ShouldSkip)
	assert.Equal(t, m.Bounds.PositionMultiplierMin, result.Final)
}

func TestCompute_TrendBoostsAddWithinOneSource(t *testing.T) {
	m := config.Default()
	trend := &model.TrendSnapshot{
		Alignment: model.Alignment{Strength: model.StrengthStrong, HTFBias: model.DirBullish},
	}

	result := Compute(MultiplierInputs{
		Entry:           baseEntry(),
		Direction:       model.SignalLong,
		Alignment:       config.AlignmentGood,
		ConfluenceScore: 65,
		Trend:           trend,
	}, m)

	assert.InDelta(t, 0.45, result.TrendAlignmentBoost, 0.001) // 0.30 + 0.15
}

func TestCompute_PhaseBoostsTakeMaxNotSum(t *testing.T) {
	m := config.Default()
	phases := []model.StoredPhase{
		{Phase: model.PhaseEvent{Confidence: model.Confidence{ConfidenceScore: 95, HTFAlignment: true}}},
		{Phase: model.PhaseEvent{Confidence: model.Confidence{ConfidenceScore: 72, HTFAlignment: true}}},
	}

	result := Compute(MultiplierInputs{
		Entry:           baseEntry(),
		Direction:       model.SignalLong,
		Alignment:       config.AlignmentGood,
		ConfluenceScore: 65,
		ActivePhases:    phases,
	}, m)

	assert.InDelta(t, 0.15, result.PhaseConfidenceBoost, 0.001) // max(0.15, 0.05), not summed
	assert.InDelta(t, 0.10, result.PhasePositionBoost, 0.001)
}

func TestHTFAlignment_PerfectWhenBothTimeframesAgree(t *testing.T) {
	entry := baseEntry()
	entry.MTFContext = model.MTFContext{Bias4H: model.SignalLong, Bias1H: model.SignalLong}

	active := []model.StoredSignal{
		{Signal: model.EnrichedSignal{Signal: model.SignalCore{Timeframe: model.TF240, Type: model.SignalLong, AIScore: 7}}},
		{Signal: model.EnrichedSignal{Signal: model.SignalCore{Timeframe: model.TF60, Type: model.SignalLong, AIScore: 7}}},
	}

	alignment := HTFAlignment(model.SignalLong, entry, active, nil)
	assert.Equal(t, config.AlignmentPerfect, alignment)
}

func TestHTFAlignment_CounterWhenBothBiasesDisagree(t *testing.T) {
	entry := baseEntry()
	entry.MTFContext = model.MTFContext{Bias4H: model.SignalShort, Bias1H: model.SignalShort}

	alignment := HTFAlignment(model.SignalLong, entry, nil, nil)
	assert.Equal(t, config.AlignmentCounter, alignment)
}
