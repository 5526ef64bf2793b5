package model

import "time"

// TrendDirection is the per-timeframe directional state in a TrendSnapshot.
type TrendDirection string

const (
	DirBullish TrendDirection = "bullish"
	DirBearish TrendDirection = "bearish"
	DirNeutral TrendDirection = "neutral"
)

// TrendKey names one of the eight timeframes tracked by a TrendSnapshot.
type TrendKey string

const (
	TFKey3Min    TrendKey = "tf3min"
	TFKey5Min    TrendKey = "tf5min"
	TFKey15Min   TrendKey = "tf15min"
	TFKey30Min   TrendKey = "tf30min"
	TFKey60Min   TrendKey = "tf60min"
	TFKey240Min  TrendKey = "tf240min"
	TFKey1Week   TrendKey = "tf1week"
	TFKey1Month  TrendKey = "tf1month"
)

// TrendKeys lists all eight keys in a stable order.
var TrendKeys = []TrendKey{
	TFKey3Min, TFKey5Min, TFKey15Min, TFKey30Min,
	TFKey60Min, TFKey240Min, TFKey1Week, TFKey1Month,
}

type TrendTimeframeState struct {
	Direction TrendDirection `json:"direction"`
	Open      float64        `json:"open"`
	Close     float64        `json:"close"`
}

// AlignmentStrength classifies how many of the eight timeframes agree.
type AlignmentStrength string

const (
	StrengthStrong   AlignmentStrength = "STRONG"
	StrengthModerate AlignmentStrength = "MODERATE"
	StrengthWeak     AlignmentStrength = "WEAK"
	StrengthChoppy   AlignmentStrength = "CHOPPY"
)

// Alignment is the derived cross-timeframe agreement summary for a
// TrendSnapshot, computed once at write time.
type Alignment struct {
	Score             float64           `json:"score"`
	Strength          AlignmentStrength `json:"strength"`
	HTFBias           TrendDirection    `json:"htf_bias"`
	LTFBias           TrendDirection    `json:"ltf_bias"`
	DominantDirection TrendDirection    `json:"dominant_direction"`
	BullishCount      int               `json:"bullish_count"`
	BearishCount      int               `json:"bearish_count"`
	NeutralCount      int               `json:"neutral_count"`
}

// TrendSnapshot is eight timeframes of direction state for one ticker.
type TrendSnapshot struct {
	Ticker    string                         `json:"ticker"`
	Exchange  string                         `json:"exchange"`
	Timestamp time.Time                      `json:"timestamp"`
	Price     float64                        `json:"price"`
	Timeframes map[TrendKey]TrendTimeframeState `json:"timeframes"`
	Alignment Alignment                      `json:"alignment"`
}

// ClassifyStrength buckets an alignment score, expressed as
// dominant_count/8*100, into its strength label.
func ClassifyStrength(score float64) AlignmentStrength {
	switch {
	case score >= 75:
		return StrengthStrong
	case score >= 62.5:
		return StrengthModerate
	case score >= 50:
		return StrengthWeak
	default:
		return StrengthChoppy
	}
}

// ComputeAlignment derives the Alignment block from the eight per-timeframe
// states. It is pure and is cached alongside the snapshot at write time.
func ComputeAlignment(tfs map[TrendKey]TrendTimeframeState) Alignment {
	var bullish, bearish, neutral int
	for _, key := range TrendKeys {
		switch tfs[key].Direction {
		case DirBullish:
			bullish++
		case DirBearish:
			bearish++
		default:
			neutral++
		}
	}

	dominant := DirNeutral
	dominantCount := neutral
	if bullish >= dominantCount {
		dominant = DirBullish
		dominantCount = bullish
	}
	if bearish > dominantCount {
		dominant = DirBearish
		dominantCount = bearish
	}

	score := float64(dominantCount) / float64(len(TrendKeys)) * 100

	return Alignment{
		Score:             score,
		Strength:          ClassifyStrength(score),
		HTFBias:           tfs[TFKey240Min].Direction,
		LTFBias:           tfs[TFKey3Min].Direction,
		DominantDirection: dominant,
		BullishCount:      bullish,
		BearishCount:      bearish,
		NeutralCount:      neutral,
	}
}
