package sizing

import (
	"math"

	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/model"
)

// MultiplierInputs is everything the pipeline needs beyond the entry
// signal itself.
type MultiplierInputs struct {
	Entry         model.EnrichedSignal
	Direction     model.SignalType
	Alignment     config.HTFAlignment
	ConfluenceScore float64
	ActivePhases  []model.StoredPhase
	Trend         *model.TrendSnapshot // nil if no live trend snapshot
}

// Result is the pipeline's output: every stage's multiplier plus the
// clamped final value, mirroring model.MultiplierBreakdown field-for-field.
type Result struct {
	ConfluenceMultiplier    float64
	QualityMultiplier       float64
	HTFAlignmentMultiplier  float64
	RRMultiplier            float64
	VolumeMultiplier        float64
	TrendMultiplier         float64
	SessionMultiplier       float64
	DayMultiplier           float64
	PhaseConfidenceBoost    float64
	PhasePositionBoost      float64
	TrendAlignmentBoost     float64
	Raw                     float64
	Final                   float64
	ShouldSkip              bool
	RecommendedContracts    float64
}

// Compute runs the 11-stage multiplicative pipeline and clamps the result
// to [PositionMultiplierMin, PositionMultiplierMax].
func Compute(in MultiplierInputs, m config.Matrices) Result {
	entry := in.Entry

	confluenceMult := config.Lookup(m.ConfluenceMultipliers, in.ConfluenceScore, config.ConfluenceMultiplierFloor)
	qualityMult := m.QualityMultipliers[entry.Signal.Quality]
	if qualityMult == 0 {
		qualityMult = 1.0
	}
	htfMult := m.HTFAlignmentMultipliers[in.Alignment]
	if htfMult == 0 {
		htfMult = 1.0
	}
	rrMult := config.Lookup(m.RRThresholds, entry.Risk.RRRatioT1, config.RRMultiplierFloor)
	volumeMult := config.Lookup(m.VolumeThresholds, entry.MarketContext.VolumeVsAvg, config.VolumeMultiplierFloor)
	trendMult := config.Lookup(m.TrendThresholds, entry.Trend.Strength, config.TrendMultiplierFloor)
	sessionMult := m.SessionMultipliers[entry.TimeContext.MarketSession]
	if sessionMult == 0 {
		sessionMult = 1.0
	}
	dayMult := m.DayMultipliers[entry.TimeContext.DayOfWeek]
	if dayMult == 0 {
		dayMult = 1.0
	}

	confidenceBoost := phaseConfidenceBoost(in.ActivePhases, m.PhaseConfidenceTiers)
	positionBoost := phasePositionBoost(in.ActivePhases)
	trendBoost := trendAlignmentBoost(in.Trend, in.Direction)

	raw := 1.0 *
		confluenceMult *
		qualityMult *
		htfMult *
		rrMult *
		volumeMult *
		trendMult *
		sessionMult *
		dayMult *
		(1 + confidenceBoost) *
		(1 + positionBoost) *
		(1 + trendBoost)

	final := clamp(raw, m.Bounds.PositionMultiplierMin, m.Bounds.PositionMultiplierMax)
	shouldSkip := raw < m.Bounds.PositionMultiplierMin

	contracts := math.Max(1, math.Round(entry.Risk.RecommendedContracts*final))

	return Result{
		ConfluenceMultiplier:   confluenceMult,
		QualityMultiplier:      qualityMult,
		HTFAlignmentMultiplier: htfMult,
		RRMultiplier:           rrMult,
		VolumeMultiplier:       volumeMult,
		TrendMultiplier:        trendMult,
		SessionMultiplier:      sessionMult,
		DayMultiplier:          dayMult,
		PhaseConfidenceBoost:   confidenceBoost,
		PhasePositionBoost:     positionBoost,
		TrendAlignmentBoost:    trendBoost,
		Raw:                    raw,
		Final:                  final,
		ShouldSkip:             shouldSkip,
		RecommendedContracts:   contracts,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// phaseConfidenceBoost is the per-source maximum confidence boost across
// active phases (not summed).
func phaseConfidenceBoost(phases []model.StoredPhase, tiers []config.Tier) float64 {
	var max float64
	for _, p := range phases {
		boost := config.Lookup(tiers, p.Phase.Confidence.ConfidenceScore, 0)
		if boost > max {
			max = boost
		}
	}
	return max
}

// phasePositionBoost is the per-source maximum position boost across
// active phases: each phase contributes PhasePositionBoostValue only when
// its confidence score clears the minimum and htf_alignment is set.
func phasePositionBoost(phases []model.StoredPhase) float64 {
	for _, p := range phases {
		if p.Phase.Confidence.ConfidenceScore >= config.PhasePositionBoostMinConfidence && p.Phase.Confidence.HTFAlignment {
			return config.PhasePositionBoostValue
		}
	}
	return 0
}

// trendAlignmentBoost sums the two components that, within one trend
// snapshot, are defined to add: STRONG alignment contributes a position
// boost, and an HTF bias matching direction contributes a confidence boost.
func trendAlignmentBoost(trend *model.TrendSnapshot, direction model.SignalType) float64 {
	if trend == nil {
		return 0
	}
	var boost float64
	if trend.Alignment.Strength == model.StrengthStrong {
		boost += config.TrendStrongPositionBoost
	}
	if trendDirectionMatches(trend.Alignment.HTFBias, direction) {
		boost += config.TrendHTFMatchConfidenceBoost
	}
	return boost
}

func trendDirectionMatches(bias model.TrendDirection, direction model.SignalType) bool {
	switch direction {
	case model.SignalLong:
		return bias == model.DirBullish
	case model.SignalShort:
		return bias == model.DirBearish
	default:
		return false
	}
}
