// Package normalize is the one place in the engine that accepts untyped
// JSON. It classifies a raw webhook payload by the presence of
// discriminating fields (never by inheritance or a wire "type" tag the
// producers don't reliably send) and converts it into the typed records
// the rest of the engine operates on.
package normalize

// Source identifies which upstream producer emitted a payload.
type Source string

const (
	SourceSatyPhase      Source = "SATY_PHASE"
	SourceMTFDots        Source = "MTF_DOTS"
	SourceUltimateOptions Source = "ULTIMATE_OPTIONS"
	SourceTradingView    Source = "TRADINGVIEW_SIGNAL"
	SourceStratExec      Source = "STRAT_EXEC"
	SourceTrend          Source = "TREND"
)

// raw is the untyped shape we probe for discriminating fields. Using
// map[string]interface{} keeps the detection logic readable; nothing past
// Detect touches this type again.
type raw = map[string]interface{}

func get(m raw, path ...string) (interface{}, bool) {
	cur := interface{}(m)
	for _, p := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := obj[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func has(m raw, path ...string) bool {
	_, ok := get(m, path...)
	return ok
}

// Detect classifies a decoded JSON payload per its field-presence rules,
// evaluated in the order that resolves overlap between ULTIMATE_OPTIONS
// and TRADINGVIEW_SIGNAL (both carry signal.type).
func Detect(payload raw) (Source, bool) {
	switch {
	case fieldEquals(payload, "SATY_PO", "meta", "engine"):
		return SourceSatyPhase, true
	case has(payload, "timeframes", "tf3min") && has(payload, "timeframes", "tf5min") && !has(payload, "ticker"):
		return SourceMTFDots, true
	case has(payload, "ticker") && allTrendTimeframesPresent(payload):
		return SourceTrend, true
	case has(payload, "setup_valid") && has(payload, "liquidity_ok") && has(payload, "quality"):
		return SourceStratExec, true
	case has(payload, "signal", "type") && has(payload, "signal", "timeframe") && has(payload, "instrument", "ticker"):
		return SourceTradingView, true
	case has(payload, "signal", "type") && has(payload, "ai_score") && !has(payload, "signal", "timeframe"):
		return SourceUltimateOptions, true
	default:
		return "", false
	}
}

func allTrendTimeframesPresent(payload raw) bool {
	for _, key := range []string{"tf3min", "tf5min", "tf15min", "tf30min", "tf60min", "tf240min", "tf1week", "tf1month"} {
		if !has(payload, "timeframes", key) {
			return false
		}
	}
	return true
}

func fieldEquals(m raw, want string, path ...string) bool {
	v, ok := get(m, path...)
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == want
}
