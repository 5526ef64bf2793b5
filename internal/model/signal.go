// Package model holds the typed records that flow through the decision
// engine once a raw webhook payload has been normalized. Nothing downstream
// of the normalizer touches untyped JSON again.
package model

import "time"

// SignalType is the directional call of an EnrichedSignal.
type SignalType string

const (
	SignalLong  SignalType = "LONG"
	SignalShort SignalType = "SHORT"
)

// Timeframe is expressed in minutes; only these six are valid on the wire.
type Timeframe int

const (
	TF3   Timeframe = 3
	TF5   Timeframe = 5
	TF15  Timeframe = 15
	TF30  Timeframe = 30
	TF60  Timeframe = 60
	TF240 Timeframe = 240
)

// ValidTimeframes lists every timeframe the normalizer accepts, in
// descending priority order (HTF first) — entry-signal selection walks
// this same order.
var ValidTimeframes = []Timeframe{TF240, TF60, TF30, TF15, TF5, TF3}

func (tf Timeframe) Valid() bool {
	for _, v := range ValidTimeframes {
		if v == tf {
			return true
		}
	}
	return false
}

// Quality is the upstream analyzer's confidence tier for a signal.
type Quality string

const (
	QualityExtreme Quality = "EXTREME"
	QualityHigh    Quality = "HIGH"
	QualityMedium  Quality = "MEDIUM"
)

// MarketSession buckets the time-of-day an event was received.
type MarketSession string

const (
	SessionOpen       MarketSession = "OPEN"
	SessionMidday     MarketSession = "MIDDAY"
	SessionPowerHour  MarketSession = "POWER_HOUR"
	SessionAfterHours MarketSession = "AFTERHOURS"
)

// DayOfWeek mirrors time.Weekday but is restricted to the trading week.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
)

// CandleDirection is the color of the most recent bar.
type CandleDirection string

const (
	CandleGreen CandleDirection = "GREEN"
	CandleRed   CandleDirection = "RED"
)

// TrendAlignment is the coarse bias derived from EMA stacking.
type TrendAlignment string

const (
	TrendBullish TrendAlignment = "BULLISH"
	TrendBearish TrendAlignment = "BEARISH"
)

type SignalCore struct {
	Type      SignalType `json:"type"`
	Timeframe Timeframe  `json:"timeframe"`
	Quality   Quality    `json:"quality"`
	AIScore   float64    `json:"ai_score"`
	Timestamp time.Time  `json:"timestamp"`
	BarTime   time.Time  `json:"bar_time"`
}

type Instrument struct {
	Exchange     string  `json:"exchange"`
	Ticker       string  `json:"ticker"`
	CurrentPrice float64 `json:"current_price"`
}

type Entry struct {
	Price      float64 `json:"price"`
	StopLoss   float64 `json:"stop_loss"`
	Target1    float64 `json:"target_1"`
	Target2    float64 `json:"target_2"`
	StopReason string  `json:"stop_reason"`
}

type Risk struct {
	Amount               float64 `json:"amount"`
	RRRatioT1            float64 `json:"rr_ratio_t1"`
	RRRatioT2            float64 `json:"rr_ratio_t2"`
	StopDistancePct      float64 `json:"stop_distance_pct"`
	RecommendedShares    float64 `json:"recommended_shares"`
	RecommendedContracts float64 `json:"recommended_contracts"`
	PositionMultiplier   float64 `json:"position_multiplier"`
	AccountRiskPct       float64 `json:"account_risk_pct"`
	MaxLossDollars       float64 `json:"max_loss_dollars"`
}

type SignalMarketContext struct {
	VWAP             float64         `json:"vwap"`
	PMH              float64         `json:"pmh"`
	PML              float64         `json:"pml"`
	DayOpen          float64         `json:"day_open"`
	DayChangePct     float64         `json:"day_change_pct"`
	PriceVsVWAPPct   float64         `json:"price_vs_vwap_pct"`
	DistanceToPMHPct float64         `json:"distance_to_pmh_pct"`
	DistanceToPMLPct float64         `json:"distance_to_pml_pct"`
	ATR              float64         `json:"atr"`
	VolumeVsAvg      float64         `json:"volume_vs_avg"`
	CandleDirection  CandleDirection `json:"candle_direction"`
	CandleSizeATR    float64         `json:"candle_size_atr"`
}

type Trend struct {
	EMA8        float64        `json:"ema_8"`
	EMA21       float64        `json:"ema_21"`
	EMA50       float64        `json:"ema_50"`
	Alignment   TrendAlignment `json:"alignment"`
	Strength    float64        `json:"strength"`
	RSI         float64        `json:"rsi"`
	MACDSignal  float64        `json:"macd_signal"`
}

type MTFContext struct {
	Bias4H  SignalType `json:"4h_bias"`
	RSI4H   float64    `json:"4h_rsi"`
	Bias1H  SignalType `json:"1h_bias"`
}

type ScoreBreakdown struct {
	Strat float64 `json:"strat"`
	Trend float64 `json:"trend"`
	Gamma float64 `json:"gamma"`
	VWAP  float64 `json:"vwap"`
	MTF   float64 `json:"mtf"`
	Golf  float64 `json:"golf"`
}

type TimeContext struct {
	MarketSession MarketSession `json:"market_session"`
	DayOfWeek     DayOfWeek     `json:"day_of_week"`
}

// EnrichedSignal is one atomic trading idea from an upstream analyzer.
type EnrichedSignal struct {
	Signal         SignalCore          `json:"signal"`
	Instrument     Instrument          `json:"instrument"`
	Entry          Entry               `json:"entry"`
	Risk           Risk                `json:"risk"`
	MarketContext  SignalMarketContext `json:"market_context"`
	Trend          Trend               `json:"trend"`
	MTFContext     MTFContext          `json:"mtf_context"`
	ScoreBreakdown ScoreBreakdown      `json:"score_breakdown"`
	TimeContext    TimeContext         `json:"time_context"`

	// StratExec fields — populated only when the source is STRAT_EXEC;
	// used by the structural gate. Zero-valued otherwise.
	SetupValid       bool    `json:"setup_valid,omitempty"`
	LiquidityOK      bool    `json:"liquidity_ok,omitempty"`
	ExecutionQuality string  `json:"execution_quality,omitempty"`
}

// ValidityMinutes returns the TTL (in minutes) for a signal of this
// timeframe, per the fixed timeframe-to-TTL mapping.
func (tf Timeframe) ValidityMinutes() int {
	switch tf {
	case TF3:
		return 6
	case TF5:
		return 10
	case TF15:
		return 30
	case TF30:
		return 60
	case TF60:
		return 120
	case TF240:
		return 480
	default:
		return 0
	}
}

// StoredSignal is the store's record for one EnrichedSignal.
type StoredSignal struct {
	Signal         EnrichedSignal `json:"signal"`
	ReceivedAt     time.Time      `json:"received_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	ValidityMinutes int           `json:"validity_minutes"`
}
