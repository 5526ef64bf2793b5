package market

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/model"
)

type fakeOptions struct {
	calls   int32
	fail    int32 // number of leading calls that fail before succeeding
	delay   time.Duration
	result  Options
	permErr error
}

func (f *fakeOptions) Options(ctx context.Context, ticker string) (Options, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Options{}, ctx.Err()
		}
	}
	if f.permErr != nil {
		return Options{}, f.permErr
	}
	if n <= f.fail {
		return Options{}, newProviderError("options", KindNetwork, errors.New("transient"))
	}
	return f.result, nil
}

type fakeStats struct{ result Stats }

func (f *fakeStats) Stats(ctx context.Context, ticker string) (Stats, error) { return f.result, nil }

type fakeLiquidity struct{ result Liquidity }

func (f *fakeLiquidity) Liquidity(ctx context.Context, ticker string) (Liquidity, error) {
	return f.result, nil
}

func TestBuild_AllProvidersSucceed(t *testing.T) {
	opts := &fakeOptions{result: Options{PutCallRatio: 0.9, IVPercentile: 40, GammaBias: model.GammaPositive}}
	stats := &fakeStats{result: Stats{ATR14: 3, RV20: 0.3, TrendSlope: 0.1}}
	liq := &fakeLiquidity{result: Liquidity{SpreadBps: 5, DepthScore: 80, TradeVelocity: model.VelocityFast}}

	b := NewBuilder(opts, stats, liq)
	result := b.Build(context.Background(), "SPY")

	require.True(t, result.Options.Success)
	assert.Equal(t, model.SourceAPI, result.Context.OptionsData.Source)
	assert.Equal(t, model.SourceAPI, result.Context.MarketStats.Source)
	assert.Equal(t, model.SourceAPI, result.Context.LiquidityData.Source)
	assert.Equal(t, 0.9, result.Context.OptionsData.PutCallRatio)
}

func TestBuild_RetriesTransientFailureThenSucceeds(t *testing.T) {
	opts := &fakeOptions{fail: 2, result: Options{PutCallRatio: 1.1, GammaBias: model.GammaNegative}}
	stats := &fakeStats{result: Stats{}}
	liq := &fakeLiquidity{result: Liquidity{}}

	b := NewBuilder(opts, stats, liq)
	result := b.Build(context.Background(), "QQQ")

	assert.True(t, result.Options.Success)
	assert.Equal(t, int32(3), opts.calls) // 2 failures + 1 success
	assert.Equal(t, 1.1, result.Context.OptionsData.PutCallRatio)
}

func TestBuild_NonRetryableErrorFallsBackImmediately(t *testing.T) {
	opts := &fakeOptions{permErr: newProviderError("options", KindMalformed, errors.New("bad json"))}
	stats := &fakeStats{result: Stats{}}
	liq := &fakeLiquidity{result: Liquidity{}}

	b := NewBuilder(opts, stats, liq)
	result := b.Build(context.Background(), "IWM")

	require.False(t, result.Options.Success)
	assert.Equal(t, KindMalformed, result.Options.Error.Kind)
	assert.Equal(t, model.SourceFallback, result.Context.OptionsData.Source)
	assert.Equal(t, model.FallbackMarketContext().OptionsData.PutCallRatio, result.Context.OptionsData.PutCallRatio)
	assert.Equal(t, int32(1), opts.calls) // no retry for a non-retryable kind
}

func TestBuild_PersistentTransientFailureExhaustsRetriesAndFallsBack(t *testing.T) {
	opts := &fakeOptions{fail: 1000, result: Options{}} // always transient-fails
	stats := &fakeStats{result: Stats{}}
	liq := &fakeLiquidity{result: Liquidity{}}

	b := NewBuilder(opts, stats, liq)
	result := b.Build(context.Background(), "DIA")

	require.False(t, result.Options.Success)
	assert.Equal(t, KindNetwork, result.Options.Error.Kind)
	assert.Equal(t, model.SourceFallback, result.Context.OptionsData.Source)
	assert.Equal(t, int32(MaxRetries+1), opts.calls)
}

func TestBuild_ProvidersRunConcurrentlyNotSerially(t *testing.T) {
	delay := 100 * time.Millisecond
	opts := &fakeOptions{result: Options{}, delay: delay}
	stats := &fakeStats{result: Stats{}}
	liq := &fakeLiquidity{result: Liquidity{}}

	b := NewBuilder(opts, stats, liq)
	start := time.Now()
	b.Build(context.Background(), "TLT")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 2*delay, "three provider calls should overlap, not sum")
}

func TestBuild_FailedProviderDoesNotFailSiblings(t *testing.T) {
	opts := &fakeOptions{permErr: newProviderError("options", KindAPI, errors.New("desk down"))}
	stats := &fakeStats{result: Stats{ATR14: 9}}
	liq := &fakeLiquidity{result: Liquidity{SpreadBps: 2}}

	b := NewBuilder(opts, stats, liq)
	result := b.Build(context.Background(), "GLD")

	assert.False(t, result.Options.Success)
	assert.True(t, result.Stats.Success)
	assert.True(t, result.Liquidity.Success)
	assert.Equal(t, 9.0, result.Context.MarketStats.ATR14)
	assert.Equal(t, 2.0, result.Context.LiquidityData.SpreadBps)
}

func TestBuild_SeededRNGGivesReproducibleRetryJitter(t *testing.T) {
	run := func() (int32, time.Duration) {
		opts := &fakeOptions{fail: 2, result: Options{PutCallRatio: 1.1}}
		stats := &fakeStats{result: Stats{}}
		liq := &fakeLiquidity{result: Liquidity{}}

		b := NewBuilder(opts, stats, liq)
		b.SetRNG(clock.NewSeededRNG(42))

		start := time.Now()
		b.Build(context.Background(), "SPY")
		return opts.calls, time.Since(start)
	}

	calls1, elapsed1 := run()
	calls2, elapsed2 := run()

	assert.Equal(t, calls1, calls2)
	// Same seed means the same jittered backoff sequence both times, so the
	// two runs' wall-clock cost should land within a shared small tolerance
	// rather than drifting with an unseeded PRNG.
	assert.InDelta(t, elapsed1.Milliseconds(), elapsed2.Milliseconds(), 20)
}
