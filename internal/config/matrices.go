package config

import "github.com/sawpanic/tradingengine/internal/model"

// ConfluenceWeights maps timeframe -> weight; must sum to 1.0.
type ConfluenceWeights map[model.Timeframe]float64

// DefaultConfluenceWeights is the built-in per-timeframe weighting.
func DefaultConfluenceWeights() ConfluenceWeights {
	return ConfluenceWeights{
		model.TF240: 0.40,
		model.TF60:  0.25,
		model.TF30:  0.15,
		model.TF15:  0.10,
		model.TF5:   0.07,
		model.TF3:   0.03,
	}
}

// Tier is one row of a descending-threshold lookup table: the first row
// whose Min the score satisfies (score >= Min) wins.
type Tier struct {
	Min   float64
	Value float64
}

// Lookup walks tiers in order (callers must supply them pre-sorted
// descending by Min) and returns the first matching Value, or fallback.
func Lookup(tiers []Tier, score, fallback float64) float64 {
	for _, t := range tiers {
		if score >= t.Min {
			return t.Value
		}
	}
	return fallback
}

func DefaultConfluenceMultipliers() []Tier {
	return []Tier{
		{90, 2.5}, {80, 2.0}, {70, 1.5}, {60, 1.0}, {50, 0.7},
	}
}

const ConfluenceMultiplierFloor = 0.5

// QualityMultipliers maps Quality -> multiplier.
type QualityMultipliers map[model.Quality]float64

func DefaultQualityMultipliers() QualityMultipliers {
	return QualityMultipliers{
		model.QualityExtreme: 1.3,
		model.QualityHigh:    1.1,
		model.QualityMedium:  1.0,
	}
}

// HTFAlignment is the tier used for the HTF-alignment multiplier.
type HTFAlignment string

const (
	AlignmentPerfect HTFAlignment = "PERFECT"
	AlignmentGood    HTFAlignment = "GOOD"
	AlignmentWeak    HTFAlignment = "WEAK"
	AlignmentCounter HTFAlignment = "COUNTER"
)

type HTFAlignmentMultipliers map[HTFAlignment]float64

func DefaultHTFAlignmentMultipliers() HTFAlignmentMultipliers {
	return HTFAlignmentMultipliers{
		AlignmentPerfect: 1.3,
		AlignmentGood:    1.15,
		AlignmentWeak:    0.85,
		AlignmentCounter: 0.5,
	}
}

func DefaultRRThresholds() []Tier {
	return []Tier{
		{5.0, 1.2}, {4.0, 1.15}, {3.0, 1.1}, {2.0, 1.0}, {1.5, 0.85},
	}
}

const RRMultiplierFloor = 0.5

func DefaultVolumeThresholds() []Tier {
	return []Tier{{1.5, 1.1}, {0.8, 1.0}}
}

const VolumeMultiplierFloor = 0.7

func DefaultTrendThresholds() []Tier {
	return []Tier{{80, 1.2}, {60, 1.0}}
}

const TrendMultiplierFloor = 0.8

type SessionMultipliers map[model.MarketSession]float64

func DefaultSessionMultipliers() SessionMultipliers {
	return SessionMultipliers{
		model.SessionOpen:       0.9,
		model.SessionMidday:     1.0,
		model.SessionPowerHour:  0.85,
		model.SessionAfterHours: 0.5,
	}
}

type DayMultipliers map[model.DayOfWeek]float64

func DefaultDayMultipliers() DayMultipliers {
	return DayMultipliers{
		model.Monday:    0.95,
		model.Tuesday:   1.1,
		model.Wednesday: 1.0,
		model.Thursday:  0.95,
		model.Friday:    0.85,
	}
}

// DefaultPhaseConfidenceBoostTiers is the tiered table used for the phase
// confidence boost (not the flat 0.20 figure seen in some reference unit
// tests — see DESIGN.md).
func DefaultPhaseConfidenceBoostTiers() []Tier {
	return []Tier{{90, 0.15}, {80, 0.10}, {70, 0.05}}
}

const PhasePositionBoostValue = 0.10
const PhasePositionBoostMinConfidence = 70.0

const TrendStrongPositionBoost = 0.30
const TrendHTFMatchConfidenceBoost = 0.15

// Bounds holds the scalar thresholds used across the gate pipeline and sizer.
type Bounds struct {
	PositionMultiplierMin float64
	PositionMultiplierMax float64
	ConfluenceThreshold   float64
	HTFMinAIScore         float64
	MaxSpreadBps          float64
	MaxATRSpike           float64
	MinDepthScore         float64
	GammaOverrideAlignPct float64
}

func DefaultBounds() Bounds {
	return Bounds{
		PositionMultiplierMin: 0.5,
		PositionMultiplierMax: 3.0,
		ConfluenceThreshold:   60,
		HTFMinAIScore:         6,
		MaxSpreadBps:          12,
		MaxATRSpike:           2.5,
		MinDepthScore:         30,
		GammaOverrideAlignPct: 85,
	}
}

// ConfidenceThresholds holds execute/wait/skip confidence cut-offs. They are
// carried in the matrices and counted in the config hash; no gate reads them.
type ConfidenceThresholds struct {
	Execute float64
	Wait    float64
	Skip    float64
}

func DefaultConfidenceThresholds() ConfidenceThresholds {
	return ConfidenceThresholds{Execute: 80, Wait: 65, Skip: 0}
}

// TieBreak names which direction wins a dominantDirection tie — configurable,
// defaulting to LONG.
type TieBreak string

const (
	TieBreakLong  TieBreak = "LONG"
	TieBreakShort TieBreak = "SHORT"
)
