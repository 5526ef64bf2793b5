package market

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// outboundLimiter paces calls to each market-data provider, keyed by
// provider name — one token bucket per key, created lazily.
type outboundLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func newOutboundLimiter(rps float64, burst int) *outboundLimiter {
	return &outboundLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (l *outboundLimiter) get(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[provider]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[provider] = lim
	return lim
}

// Wait blocks until a token for provider is available or ctx is done.
func (l *outboundLimiter) Wait(ctx context.Context, provider string) error {
	return l.get(provider).Wait(ctx)
}
