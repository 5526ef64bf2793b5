package model

import "time"

// RegimePhaseName is the market-cycle label derived from the active phase.
type RegimePhaseName string

const (
	PhaseAccumulation RegimePhaseName = "ACCUMULATION"
	PhaseMarkup       RegimePhaseName = "MARKUP"
	PhaseDistribution RegimePhaseName = "DISTRIBUTION"
	PhaseMarkdown     RegimePhaseName = "MARKDOWN"
)

// PhaseNumber maps the four regime phases to their regime-gate index.
type PhaseNumber int

const (
	PhaseNumAccumulation PhaseNumber = 1
	PhaseNumMarkup       PhaseNumber = 2
	PhaseNumDistribution PhaseNumber = 3
	PhaseNumMarkdown     PhaseNumber = 4
)

func (n PhaseNumber) Name() RegimePhaseName {
	switch n {
	case PhaseNumAccumulation:
		return PhaseAccumulation
	case PhaseNumMarkup:
		return PhaseMarkup
	case PhaseNumDistribution:
		return PhaseDistribution
	case PhaseNumMarkdown:
		return PhaseMarkdown
	default:
		return ""
	}
}

// AllowedDirections is the regime gate's static policy matrix.
func (n PhaseNumber) AllowedDirections() []SignalType {
	switch n {
	case PhaseNumAccumulation:
		return []SignalType{SignalLong, SignalShort}
	case PhaseNumMarkup:
		return []SignalType{SignalLong}
	case PhaseNumDistribution:
		return nil
	case PhaseNumMarkdown:
		return []SignalType{SignalShort}
	default:
		return nil
	}
}

// Volatility buckets market volatility for the regime block.
type Volatility string

const (
	VolLow    Volatility = "LOW"
	VolNormal Volatility = "NORMAL"
	VolHigh   Volatility = "HIGH"
	VolExtreme Volatility = "EXTREME"
)

// ExecutionQuality is the structural gate's coarse tier.
type ExecutionQuality string

const (
	ExecutionA ExecutionQuality = "A"
	ExecutionB ExecutionQuality = "B"
	ExecutionC ExecutionQuality = "C"
)

type ContextMeta struct {
	EngineVersion string    `json:"engine_version"`
	ReceivedAt    time.Time `json:"received_at"`
	Completeness  float64   `json:"completeness"`
}

type RegimeBlock struct {
	Phase      PhaseNumber     `json:"phase"`
	PhaseName  RegimePhaseName `json:"phaseName"`
	Volatility Volatility      `json:"volatility"`
	Confidence float64         `json:"confidence"`
	Bias       Bias            `json:"bias"`
}

type AlignmentBlock struct {
	TFStates   map[TrendKey]TrendDirection `json:"tfStates"`
	BullishPct float64                     `json:"bullishPct"`
	BearishPct float64                     `json:"bearishPct"`
}

type ExpertBlock struct {
	Direction  SignalType     `json:"direction"`
	AIScore    float64        `json:"aiScore"`
	Quality    Quality        `json:"quality"`
	Components ScoreBreakdown `json:"components"`
	RR1        float64        `json:"rr1"`
	RR2        float64        `json:"rr2"`
}

type StructureBlock struct {
	ValidSetup       bool             `json:"validSetup"`
	LiquidityOK      bool             `json:"liquidityOk"`
	ExecutionQuality ExecutionQuality `json:"executionQuality"`
}

// DecisionContext is a composed per-decision view (meta, instrument, regime,
// alignment, expert, structure). The gate pipeline does not consume it; it
// reads the stores' entries directly.
type DecisionContext struct {
	Meta      ContextMeta    `json:"meta"`
	Instrument Instrument    `json:"instrument"`
	Regime    RegimeBlock    `json:"regime"`
	Alignment AlignmentBlock `json:"alignment"`
	Expert    ExpertBlock    `json:"expert"`
	Structure StructureBlock `json:"structure"`
}
