package market

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/model"
)

// DefaultProviderBudget is the per-provider deadline.
const DefaultProviderBudget = 600 * time.Millisecond

// MaxRetries is the number of retries a retryable ProviderError gets,
// within the provider's own budget.
const MaxRetries = 2

// retryBackoffUnit is the base of the exponential backoff between retry
// attempts (unit, 2×unit, ...).
const retryBackoffUnit = 25 * time.Millisecond

// Outcome reports what happened for one of the three provider sections,
// independent of whether MarketContext ended up with API or FALLBACK data.
type Outcome struct {
	Success    bool
	Source     model.DataSource
	Error      *ProviderError
	DurationMS int64
}

// BuildResult is the always-complete MarketContext plus per-provider
// metadata: the builder always returns a complete MarketContext plus
// per-provider outcome metadata.
type BuildResult struct {
	Context   model.MarketContext
	Options   Outcome
	Stats     Outcome
	Liquidity Outcome
}

// Builder is the MarketContextBuilder: it fans out to three providers
// concurrently, each guarded by its own circuit breaker and outbound rate
// limiter, and never fails the build — a failed provider degrades its
// section of the MarketContext to the frozen fallback values.
type Builder struct {
	options   OptionsProvider
	stats     StatsProvider
	liquidity LiquidityProvider

	breakers map[string]*gobreaker.CircuitBreaker[any]
	limiter  *outboundLimiter
	budget   time.Duration
	rng      clock.RNG
}

// NewBuilder wires a Builder around concrete provider clients, one circuit
// breaker per provider and a shared outbound limiter keyed by provider name.
func NewBuilder(options OptionsProvider, stats StatsProvider, liquidity LiquidityProvider) *Builder {
	return &Builder{
		options:   options,
		stats:     stats,
		liquidity: liquidity,
		breakers: map[string]*gobreaker.CircuitBreaker[any]{
			"options":   newBreaker("options", DefaultBreakerConfig()),
			"stats":     newBreaker("stats", DefaultBreakerConfig()),
			"liquidity": newBreaker("liquidity", DefaultBreakerConfig()),
		},
		limiter: newOutboundLimiter(5, 5),
		budget:  DefaultProviderBudget,
		rng:     clock.NewProcessRNG(),
	}
}

// SetRNG overrides the backoff jitter source, for tests that need
// reproducible retry timing.
func (b *Builder) SetRNG(rng clock.RNG) {
	b.rng = rng
}

// Build launches all three provider goroutines before awaiting any of
// them: a slow or failed provider never delays, or fails, its siblings.
// Total duration is roughly max(provider durations), not their sum.
func (b *Builder) Build(ctx context.Context, ticker string) BuildResult {
	var wg sync.WaitGroup
	wg.Add(3)

	var (
		optionsData model.OptionsData
		optionsOut  Outcome
		statsData   model.MarketStats
		statsOut    Outcome
		liquidData  model.LiquidityData
		liquidOut   Outcome
	)

	go func() {
		defer wg.Done()
		optionsData, optionsOut = b.buildOptions(ctx, ticker)
	}()
	go func() {
		defer wg.Done()
		statsData, statsOut = b.buildStats(ctx, ticker)
	}()
	go func() {
		defer wg.Done()
		liquidData, liquidOut = b.buildLiquidity(ctx, ticker)
	}()

	wg.Wait()

	return BuildResult{
		Context: model.MarketContext{
			OptionsData:   optionsData,
			MarketStats:   statsData,
			LiquidityData: liquidData,
		},
		Options:   optionsOut,
		Stats:     statsOut,
		Liquidity: liquidOut,
	}
}

func (b *Builder) buildOptions(ctx context.Context, ticker string) (model.OptionsData, Outcome) {
	start := time.Now()
	result, err := b.breakers["options"].Execute(func() (any, error) {
		return b.callOptions(ctx, ticker)
	})
	duration := time.Since(start).Milliseconds()

	if err != nil {
		perr := classifyBreakerErr("options", err)
		fb := model.FallbackMarketContext().OptionsData
		return fb, Outcome{Success: false, Source: model.SourceFallback, Error: perr, DurationMS: duration}
	}

	opts := result.(Options)
	return model.OptionsData{
			PutCallRatio: opts.PutCallRatio,
			IVPercentile: opts.IVPercentile,
			GammaBias:    opts.GammaBias,
			Source:       model.SourceAPI,
		}, Outcome{Success: true, Source: model.SourceAPI, DurationMS: duration}
}

func (b *Builder) buildStats(ctx context.Context, ticker string) (model.MarketStats, Outcome) {
	start := time.Now()
	result, err := b.breakers["stats"].Execute(func() (any, error) {
		return b.callStats(ctx, ticker)
	})
	duration := time.Since(start).Milliseconds()

	if err != nil {
		perr := classifyBreakerErr("stats", err)
		fb := model.FallbackMarketContext().MarketStats
		return fb, Outcome{Success: false, Source: model.SourceFallback, Error: perr, DurationMS: duration}
	}

	stats := result.(Stats)
	return model.MarketStats{
			ATR14:      stats.ATR14,
			RV20:       stats.RV20,
			TrendSlope: stats.TrendSlope,
			Source:     model.SourceAPI,
		}, Outcome{Success: true, Source: model.SourceAPI, DurationMS: duration}
}

func (b *Builder) buildLiquidity(ctx context.Context, ticker string) (model.LiquidityData, Outcome) {
	start := time.Now()
	result, err := b.breakers["liquidity"].Execute(func() (any, error) {
		return b.callLiquidity(ctx, ticker)
	})
	duration := time.Since(start).Milliseconds()

	if err != nil {
		perr := classifyBreakerErr("liquidity", err)
		fb := model.FallbackMarketContext().LiquidityData
		return fb, Outcome{Success: false, Source: model.SourceFallback, Error: perr, DurationMS: duration}
	}

	liq := result.(Liquidity)
	return model.LiquidityData{
			SpreadBps:     liq.SpreadBps,
			DepthScore:    liq.DepthScore,
			TradeVelocity: liq.TradeVelocity,
			Source:        model.SourceAPI,
		}, Outcome{Success: true, Source: model.SourceAPI, DurationMS: duration}
}

// BreakerStates reports each provider's circuit breaker state, keyed by
// provider name, for the /health endpoint.
func (b *Builder) BreakerStates() map[string]string {
	states := make(map[string]string, len(b.breakers))
	for name, breaker := range b.breakers {
		states[name] = breaker.State().String()
	}
	return states
}

func (b *Builder) callOptions(ctx context.Context, ticker string) (Options, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.budget)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := waitRetry(callCtx, "options", attempt, b.limiter, b.rng); err != nil {
			return Options{}, err
		}
		data, err := b.options.Options(callCtx, ticker)
		if err == nil {
			return data, nil
		}
		perr := classifyError("options", err)
		if !perr.Retryable {
			return Options{}, perr
		}
		lastErr = perr
	}
	return Options{}, lastErr
}

func (b *Builder) callStats(ctx context.Context, ticker string) (Stats, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.budget)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := waitRetry(callCtx, "stats", attempt, b.limiter, b.rng); err != nil {
			return Stats{}, err
		}
		data, err := b.stats.Stats(callCtx, ticker)
		if err == nil {
			return data, nil
		}
		perr := classifyError("stats", err)
		if !perr.Retryable {
			return Stats{}, perr
		}
		lastErr = perr
	}
	return Stats{}, lastErr
}

func (b *Builder) callLiquidity(ctx context.Context, ticker string) (Liquidity, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.budget)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := waitRetry(callCtx, "liquidity", attempt, b.limiter, b.rng); err != nil {
			return Liquidity{}, err
		}
		data, err := b.liquidity.Liquidity(callCtx, ticker)
		if err == nil {
			return data, nil
		}
		perr := classifyError("liquidity", err)
		if !perr.Retryable {
			return Liquidity{}, perr
		}
		lastErr = perr
	}
	return Liquidity{}, lastErr
}

// waitRetry sleeps the exponential backoff for attempt > 0, full-jittered by
// rng so concurrent retries across providers don't all wake in lockstep,
// then blocks on the outbound limiter, all within callCtx's budget.
func waitRetry(callCtx context.Context, provider string, attempt int, limiter *outboundLimiter, rng clock.RNG) error {
	if attempt > 0 {
		backoffCap := time.Duration(1<<uint(attempt-1)) * retryBackoffUnit
		backoff := time.Duration(rng.Float64() * float64(backoffCap))
		timer := time.NewTimer(backoff)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-callCtx.Done():
			return newProviderError(provider, KindTimeout, callCtx.Err())
		}
	}
	if err := limiter.Wait(callCtx, provider); err != nil {
		return newProviderError(provider, KindTimeout, err)
	}
	return nil
}

func classifyError(provider string, err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newProviderError(provider, KindTimeout, err)
	}
	return newProviderError(provider, KindNetwork, err)
}

func classifyBreakerErr(provider string, err error) *ProviderError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return newProviderError(provider, KindRateLimited, err)
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return newProviderError(provider, KindAPI, err)
}
