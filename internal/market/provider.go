// Package market implements MarketContextBuilder: three concurrent
// provider calls, each behind its own circuit breaker and outbound rate
// limiter, assembled into a MarketContext that is always complete — a
// failed provider degrades to the frozen fallback table rather than
// failing the build.
package market

import (
	"context"
	"fmt"

	"github.com/sawpanic/tradingengine/internal/model"
)

// ErrorKind is one of the ProviderError kinds.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "TIMEOUT"
	KindNetwork     ErrorKind = "NETWORK"
	KindRateLimited ErrorKind = "RATE_LIMITED"
	KindAPI         ErrorKind = "API"
	KindMalformed   ErrorKind = "MALFORMED"
)

// ProviderError is the typed error every provider call returns on failure.
// Retryable is set for kinds worth retrying within the remaining budget
// (TIMEOUT, NETWORK); API and MALFORMED are not, RATE_LIMITED is not since
// retrying into a limiter that just rejected us wastes the budget.
type ProviderError struct {
	Kind      ErrorKind
	Provider  string
	Retryable bool
	Cause     error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s provider error [%s]: %v", e.Provider, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s provider error [%s]", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

func newProviderError(provider string, kind ErrorKind, cause error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Kind:      kind,
		Retryable: kind == KindTimeout || kind == KindNetwork,
		Cause:     cause,
	}
}

// Options, Stats and Liquidity are the raw shapes a provider returns —
// the Source field is the builder's to set, not the provider's.
type Options struct {
	PutCallRatio float64
	IVPercentile float64
	GammaBias    model.GammaBias
}

type Stats struct {
	ATR14      float64
	RV20       float64
	TrendSlope float64
}

type Liquidity struct {
	SpreadBps     float64
	DepthScore    float64
	TradeVelocity model.TradeVelocity
}

// OptionsProvider fetches live options-desk data for a ticker.
type OptionsProvider interface {
	Options(ctx context.Context, ticker string) (Options, error)
}

// StatsProvider fetches live volatility/trend statistics for a ticker.
type StatsProvider interface {
	Stats(ctx context.Context, ticker string) (Stats, error)
}

// LiquidityProvider fetches live order-book/tape liquidity data for a ticker.
type LiquidityProvider interface {
	Liquidity(ctx context.Context, ticker string) (Liquidity, error)
}
