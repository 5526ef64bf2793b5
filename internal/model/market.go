package model

// DataSource marks whether a MarketContext section came from a live
// provider call or the frozen fallback table.
type DataSource string

const (
	SourceAPI      DataSource = "API"
	SourceFallback DataSource = "FALLBACK"
)

// GammaBias is the options desk's read on dealer gamma exposure.
type GammaBias string

const (
	GammaPositive GammaBias = "POSITIVE"
	GammaNegative GammaBias = "NEGATIVE"
	GammaNeutral  GammaBias = "NEUTRAL"
)

type OptionsData struct {
	PutCallRatio  float64    `json:"putCallRatio"`
	IVPercentile  float64    `json:"ivPercentile"`
	GammaBias     GammaBias  `json:"gammaBias"`
	Source        DataSource `json:"source"`
}

type MarketStats struct {
	ATR14      float64    `json:"atr14"`
	RV20       float64    `json:"rv20"`
	TrendSlope float64    `json:"trendSlope"`
	Source     DataSource `json:"source"`
}

// TradeVelocity buckets how fast prints are arriving relative to normal.
type TradeVelocity string

const (
	VelocitySlow   TradeVelocity = "SLOW"
	VelocityNormal TradeVelocity = "NORMAL"
	VelocityFast   TradeVelocity = "FAST"
)

type LiquidityData struct {
	SpreadBps     float64       `json:"spreadBps"`
	DepthScore    float64       `json:"depthScore"`
	TradeVelocity TradeVelocity `json:"tradeVelocity"`
	Source        DataSource    `json:"source"`
}

// MarketContext is the fully assembled, always-complete output of the
// MarketContextBuilder for one ticker.
type MarketContext struct {
	OptionsData   OptionsData   `json:"optionsData"`
	MarketStats   MarketStats   `json:"marketStats"`
	LiquidityData LiquidityData `json:"liquidityData"`
}

// FallbackMarketContext is the frozen substitute table used whenever a
// provider section could not be obtained.
func FallbackMarketContext() MarketContext {
	return MarketContext{
		OptionsData: OptionsData{
			PutCallRatio: 1.0,
			IVPercentile: 50,
			GammaBias:    GammaNeutral,
			Source:       SourceFallback,
		},
		MarketStats: MarketStats{
			ATR14:      2.0,
			RV20:       0.2,
			TrendSlope: 0,
			Source:     SourceFallback,
		},
		LiquidityData: LiquidityData{
			SpreadBps:     15,
			DepthScore:    50,
			TradeVelocity: VelocityNormal,
			Source:        SourceFallback,
		},
	}
}
