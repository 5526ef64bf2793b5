package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sawpanic/tradingengine/internal/apperr"
	"github.com/sawpanic/tradingengine/internal/model"
)

// Normalizer is stateless and deterministic: the same payload always
// produces the same typed record (P1 depends on this transitively, since
// DecisionEngine inputs originate here).
type Normalizer struct {
	now func() time.Time
}

// New returns a Normalizer using the supplied clock for defaulting missing
// timestamps.
func New(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Result is the typed outcome of normalizing one payload — exactly one of
// the fields is populated, matching which Source was detected.
type Result struct {
	Source Source
	Signal *model.EnrichedSignal
	Phase  *model.PhaseEvent
	Trend  *model.TrendSnapshot
}

// Normalize classifies and converts a raw JSON body.
func (n *Normalizer) Normalize(body []byte) (*Result, *apperr.Error) {
	var payload raw
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperr.Validation("payload is not valid JSON", map[string]interface{}{"parse_error": err.Error()})
	}

	src, ok := Detect(payload)
	if !ok {
		return nil, apperr.Unknown("payload does not match any known source shape")
	}

	switch src {
	case SourceSatyPhase:
		phase, err := n.convertPhase(payload)
		if err != nil {
			return nil, err
		}
		return &Result{Source: src, Phase: phase}, nil
	case SourceMTFDots, SourceTrend:
		trend, err := n.convertTrend(payload)
		if err != nil {
			return nil, err
		}
		return &Result{Source: src, Trend: trend}, nil
	case SourceUltimateOptions, SourceTradingView, SourceStratExec:
		sig, err := n.convertSignal(payload, src)
		if err != nil {
			return nil, err
		}
		return &Result{Source: src, Signal: sig}, nil
	default:
		return nil, apperr.Unknown("unrecognized source: " + string(src))
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

func str(m raw, path ...string) string {
	v, ok := get(m, path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func num(m raw, path ...string) float64 {
	v, ok := get(m, path...)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	}
	return 0
}

func boolean(m raw, path ...string) bool {
	v, ok := get(m, path...)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func validateEnum(field, value string, allowed ...string) *apperr.Error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return apperr.Schema(fmt.Sprintf("%s has invalid value %q", field, value), map[string]interface{}{
		"field": field, "value": value, "allowed": allowed,
	})
}

// convertSignal handles ULTIMATE_OPTIONS, TRADINGVIEW_SIGNAL and STRAT_EXEC
// — all three share the EnrichedSignal shape; STRAT_EXEC additionally
// carries the structural-gate fields.
func (n *Normalizer) convertSignal(m raw, src Source) (*model.EnrichedSignal, *apperr.Error) {
	sigType := upper(str(m, "signal", "type"))
	if sigType == "" {
		sigType = upper(str(m, "type"))
	}
	if err := validateEnum("signal.type", sigType, string(model.SignalLong), string(model.SignalShort)); err != nil {
		return nil, err
	}

	quality := upper(str(m, "signal", "quality"))
	if quality == "" {
		quality = string(model.QualityMedium)
	}
	if err := validateEnum("signal.quality", quality, string(model.QualityExtreme), string(model.QualityHigh), string(model.QualityMedium)); err != nil {
		return nil, err
	}

	tf := model.Timeframe(int(num(m, "signal", "timeframe")))
	if src != SourceUltimateOptions {
		if !tf.Valid() {
			return nil, apperr.Schema("signal.timeframe is not one of the recognized timeframes", map[string]interface{}{"timeframe": tf})
		}
	}

	aiScore := clamp(num(m, "ai_score"), 0, 10.5)
	if aiScore == 0 {
		aiScore = clamp(num(m, "signal", "ai_score"), 0, 10.5)
	}

	session := upper(str(m, "time_context", "market_session"))
	if session == "" {
		session = string(model.SessionOpen)
	}
	if err := validateEnum("time_context.market_session", session,
		string(model.SessionOpen), string(model.SessionMidday), string(model.SessionPowerHour), string(model.SessionAfterHours)); err != nil {
		return nil, err
	}

	day := upper(str(m, "time_context", "day_of_week"))
	if day != "" {
		if err := validateEnum("time_context.day_of_week", day,
			string(model.Monday), string(model.Tuesday), string(model.Wednesday), string(model.Thursday), string(model.Friday)); err != nil {
			return nil, err
		}
	}

	candleDir := upper(str(m, "market_context", "candle_direction"))
	if candleDir != "" {
		if err := validateEnum("market_context.candle_direction", candleDir, string(model.CandleGreen), string(model.CandleRed)); err != nil {
			return nil, err
		}
	}

	trendAlignment := upper(str(m, "trend", "alignment"))
	if trendAlignment != "" {
		if err := validateEnum("trend.alignment", trendAlignment, string(model.TrendBullish), string(model.TrendBearish)); err != nil {
			return nil, err
		}
	}

	ts := parseTimestamp(m, n.now(), "signal", "timestamp")
	barTime := parseTimestamp(m, ts, "signal", "bar_time")

	sig := &model.EnrichedSignal{
		Signal: model.SignalCore{
			Type:      model.SignalType(sigType),
			Timeframe: tf,
			Quality:   model.Quality(quality),
			AIScore:   aiScore,
			Timestamp: ts,
			BarTime:   barTime,
		},
		Instrument: model.Instrument{
			Exchange:     str(m, "instrument", "exchange"),
			Ticker:       str(m, "instrument", "ticker"),
			CurrentPrice: num(m, "instrument", "current_price"),
		},
		Entry: model.Entry{
			Price:      num(m, "entry", "price"),
			StopLoss:   num(m, "entry", "stop_loss"),
			Target1:    num(m, "entry", "target_1"),
			Target2:    num(m, "entry", "target_2"),
			StopReason: str(m, "entry", "stop_reason"),
		},
		Risk: model.Risk{
			Amount:               num(m, "risk", "amount"),
			RRRatioT1:            num(m, "risk", "rr_ratio_t1"),
			RRRatioT2:            num(m, "risk", "rr_ratio_t2"),
			StopDistancePct:      num(m, "risk", "stop_distance_pct"),
			RecommendedShares:    num(m, "risk", "recommended_shares"),
			RecommendedContracts: num(m, "risk", "recommended_contracts"),
			PositionMultiplier:   num(m, "risk", "position_multiplier"),
			AccountRiskPct:       num(m, "risk", "account_risk_pct"),
			MaxLossDollars:       num(m, "risk", "max_loss_dollars"),
		},
		MarketContext: model.SignalMarketContext{
			VWAP:             num(m, "market_context", "vwap"),
			PMH:              num(m, "market_context", "pmh"),
			PML:              num(m, "market_context", "pml"),
			DayOpen:          num(m, "market_context", "day_open"),
			DayChangePct:     num(m, "market_context", "day_change_pct"),
			PriceVsVWAPPct:   num(m, "market_context", "price_vs_vwap_pct"),
			DistanceToPMHPct: num(m, "market_context", "distance_to_pmh_pct"),
			DistanceToPMLPct: num(m, "market_context", "distance_to_pml_pct"),
			ATR:              num(m, "market_context", "atr"),
			VolumeVsAvg:      num(m, "market_context", "volume_vs_avg"),
			CandleDirection:  model.CandleDirection(candleDir),
			CandleSizeATR:    num(m, "market_context", "candle_size_atr"),
		},
		Trend: model.Trend{
			EMA8:       num(m, "trend", "ema_8"),
			EMA21:      num(m, "trend", "ema_21"),
			EMA50:      num(m, "trend", "ema_50"),
			Alignment:  model.TrendAlignment(trendAlignment),
			Strength:   clamp(num(m, "trend", "strength"), 0, 100),
			RSI:        clamp(num(m, "trend", "rsi"), 0, 100),
			MACDSignal: num(m, "trend", "macd_signal"),
		},
		MTFContext: model.MTFContext{
			Bias4H: model.SignalType(upper(str(m, "mtf_context", "4h_bias"))),
			RSI4H:  clamp(num(m, "mtf_context", "4h_rsi"), 0, 100),
			Bias1H: model.SignalType(upper(str(m, "mtf_context", "1h_bias"))),
		},
		ScoreBreakdown: model.ScoreBreakdown{
			Strat: num(m, "score_breakdown", "strat"),
			Trend: num(m, "score_breakdown", "trend"),
			Gamma: num(m, "score_breakdown", "gamma"),
			VWAP:  num(m, "score_breakdown", "vwap"),
			MTF:   num(m, "score_breakdown", "mtf"),
			Golf:  num(m, "score_breakdown", "golf"),
		},
		TimeContext: model.TimeContext{
			MarketSession: model.MarketSession(session),
			DayOfWeek:     model.DayOfWeek(day),
		},
	}

	if src == SourceStratExec {
		sig.SetupValid = boolean(m, "setup_valid")
		sig.LiquidityOK = boolean(m, "liquidity_ok")
		sig.ExecutionQuality = upper(str(m, "quality"))
	}

	return sig, nil
}

func (n *Normalizer) convertPhase(m raw) (*model.PhaseEvent, *apperr.Error) {
	eventType := upper(str(m, "meta", "event_type"))
	if err := validateEnum("meta.event_type", eventType,
		string(model.PhaseEntry), string(model.PhaseExit), string(model.PhaseReversal)); err != nil {
		return nil, err
	}

	implication := upper(str(m, "event", "directional_implication"))
	if err := validateEnum("event.directional_implication", implication,
		string(model.ImplicationUpside), string(model.ImplicationDownside), string(model.ImplicationNeutral)); err != nil {
		return nil, err
	}

	tfRole := upper(str(m, "timeframe", "tf_role"))
	if err := validateEnum("timeframe.tf_role", tfRole,
		string(model.RoleRegime), string(model.RoleBias), string(model.RoleSetupFormation), string(model.RoleStructural)); err != nil {
		return nil, err
	}

	localBias := upper(str(m, "regime_context", "local_bias"))
	htfBias := upper(str(m, "regime_context", "htf_bias"))
	macroBias := upper(str(m, "regime_context", "macro_bias"))
	for field, v := range map[string]string{"regime_context.local_bias": localBias, "regime_context.htf_bias": htfBias, "regime_context.macro_bias": macroBias} {
		if v == "" {
			continue
		}
		if err := validateEnum(field, v, string(model.BiasBullish), string(model.BiasBearish), string(model.BiasNeutral)); err != nil {
			return nil, err
		}
	}

	eventID := str(m, "meta", "event_id")
	if eventID == "" {
		eventID = generateID(n.now())
	}

	var allowedDirs []model.SignalType
	if rawDirs, ok := get(m, "execution_guidance", "allowed_directions"); ok {
		if list, ok := rawDirs.([]interface{}); ok {
			for _, d := range list {
				if s, ok := d.(string); ok {
					allowedDirs = append(allowedDirs, model.SignalType(upper(s)))
				}
			}
		}
	}

	return &model.PhaseEvent{
		Meta: model.PhaseMeta{
			Engine:      str(m, "meta", "engine"),
			EventID:     eventID,
			EventType:   model.PhaseEventType(eventType),
			GeneratedAt: parseTimestamp(m, n.now(), "meta", "generated_at"),
		},
		Instrument: model.Instrument{
			Exchange:     str(m, "instrument", "exchange"),
			Ticker:       str(m, "instrument", "ticker"),
			CurrentPrice: num(m, "instrument", "current_price"),
		},
		Timeframe: model.PhaseTimeframe{
			Timeframe: model.Timeframe(int(num(m, "timeframe", "timeframe"))),
			TFRole:    model.TFRole(tfRole),
		},
		Event: model.PhaseEventDetail{
			Name:                   str(m, "event", "name"),
			DirectionalImplication: model.DirectionalImplication(implication),
			EventPriority:          int(num(m, "event", "event_priority")),
		},
		RegimeContext: model.RegimeContext{
			LocalBias: model.Bias(localBias),
			HTFBias:   model.Bias(htfBias),
			MacroBias: model.Bias(macroBias),
		},
		Confidence: model.Confidence{
			RawStrength:     clamp(num(m, "confidence", "raw_strength"), -100, 100),
			HTFAlignment:    boolean(m, "confidence", "htf_alignment"),
			ConfidenceScore: clamp(num(m, "confidence", "confidence_score"), 0, 100),
			ConfidenceTier:  model.ConfidenceTier(str(m, "confidence", "confidence_tier")),
		},
		ExecutionGuidance: model.ExecutionGuidance{
			TradeAllowed:      boolean(m, "execution_guidance", "trade_allowed"),
			AllowedDirections: allowedDirs,
		},
		RiskHints: model.RiskHints{
			TimeDecayMinutes: int(num(m, "risk_hints", "time_decay_minutes")),
			CooldownTF:       str(m, "risk_hints", "cooldown_tf"),
		},
	}, nil
}

func (n *Normalizer) convertTrend(m raw) (*model.TrendSnapshot, *apperr.Error) {
	ticker := str(m, "ticker")
	if ticker == "" {
		return nil, apperr.Schema("ticker is required", nil)
	}

	tfs := make(map[model.TrendKey]model.TrendTimeframeState, len(model.TrendKeys))
	for _, key := range model.TrendKeys {
		dir := strings.ToLower(str(m, "timeframes", string(key), "direction"))
		if dir != "" {
			if err := validateEnum("timeframes."+string(key)+".direction", dir,
				string(model.DirBullish), string(model.DirBearish), string(model.DirNeutral)); err != nil {
				return nil, err
			}
		} else {
			dir = string(model.DirNeutral)
		}
		tfs[key] = model.TrendTimeframeState{
			Direction: model.TrendDirection(dir),
			Open:      num(m, "timeframes", string(key), "open"),
			Close:     num(m, "timeframes", string(key), "close"),
		}
	}

	return &model.TrendSnapshot{
		Ticker:     ticker,
		Exchange:   str(m, "exchange"),
		Timestamp:  parseTimestamp(m, n.now(), "timestamp"),
		Price:      num(m, "price"),
		Timeframes: tfs,
		Alignment:  model.ComputeAlignment(tfs),
	}, nil
}

// parseTimestamp reads a Unix-milliseconds field, defaulting to fallback
// when absent.
func parseTimestamp(m raw, fallback time.Time, path ...string) time.Time {
	v, ok := get(m, path...)
	if !ok {
		return fallback
	}
	switch t := v.(type) {
	case float64:
		return time.UnixMilli(int64(t))
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return fallback
}

var idCounter uint64

// generateID produces a fallback event_id when the upstream producer
// omits one; callers that need collision-resistant IDs (webhook requestId)
// use google/uuid instead — this is only for the rare missing-field case.
// It takes now explicitly so a fixed-clock Normalizer still produces a
// reproducible ID instead of reaching for wall-clock time.
func generateID(now time.Time) string {
	return fmt.Sprintf("evt-%d", now.UnixNano())
}
