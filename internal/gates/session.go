package gates

import "time"

// newYorkLocation loads America/New_York, falling back to a fixed -5h
// offset if the tzdata isn't available in a minimal container.
func newYorkLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// isWeekend reports whether a time (already in the target location) falls
// on Saturday or Sunday.
func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// sessionAllows implements the session gate: AFTERHOURS blocks execution,
// weekends are explicitly allowed despite falling outside the regular
// session window. Pre-market (before 09:30 ET) has no dedicated
// MarketSession value, so it is folded into AFTERHOURS — the conservative
// reading, since only four session buckets are defined.
func sessionAllows(receivedAt time.Time) (bool, string) {
	nt := receivedAt.In(newYorkLocation())
	if isWeekend(nt) {
		return true, ""
	}

	minutesSinceMidnight := nt.Hour()*60 + nt.Minute()
	const (
		openStart      = 9*60 + 30
		middayStart    = 12 * 60
		powerHourStart = 15 * 60
		closeAt        = 16 * 60
	)

	switch {
	case minutesSinceMidnight >= openStart && minutesSinceMidnight < middayStart:
	case minutesSinceMidnight >= middayStart && minutesSinceMidnight < powerHourStart:
	case minutesSinceMidnight >= powerHourStart && minutesSinceMidnight < closeAt:
	default:
		return false, "afterhours session blocks execution"
	}
	return true, ""
}
