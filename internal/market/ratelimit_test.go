package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutboundLimiter_SeparatesBucketsPerProvider(t *testing.T) {
	l := newOutboundLimiter(1000, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, l.Wait(ctx, "options"))
	assert.NoError(t, l.Wait(ctx, "stats")) // different provider, its own bucket, not starved by options
}

func TestOutboundLimiter_BlocksUntilTokenAvailable(t *testing.T) {
	l := newOutboundLimiter(2, 1) // 1 burst, refills every 500ms

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require := func(err error) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require(l.Wait(ctx, "liquidity"))
	start := time.Now()
	require(l.Wait(ctx, "liquidity"))
	assert.Greater(t, time.Since(start), 100*time.Millisecond)
}
