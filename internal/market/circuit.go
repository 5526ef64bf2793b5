package market

import (
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig names the tunable circuit-breaker knobs (failure ratio,
// minimum window size, open-state cooldown) translated onto
// gobreaker.Settings.
type BreakerConfig struct {
	FailureRatio float64       // fraction of failed requests that trips the breaker
	MinRequests  uint32        // requests required in the window before the ratio is evaluated
	OpenTimeout  time.Duration // time the breaker stays open before a half-open probe
}

// DefaultBreakerConfig: 50% failure rate over a window of at least 10
// requests, 30s cooldown.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureRatio: 0.5,
		MinRequests:  10,
		OpenTimeout:  30 * time.Second,
	}
}

// newBreaker builds one gobreaker.CircuitBreaker per provider. Each builder
// call is one Execute — retries happen inside the wrapped func, so the
// breaker records a single success/failure per ticker decision rather than
// per HTTP attempt.
func newBreaker(provider string, cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
	})
}
