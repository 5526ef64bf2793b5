package market

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreaker_TripsAfterFailureRatioBreachedWithMinRequests(t *testing.T) {
	cfg := BreakerConfig{FailureRatio: 0.5, MinRequests: 2, OpenTimeout: time.Minute}
	cb := newBreaker("test", cfg)

	fail := func() (interface{}, error) {
		return nil, errors.New("boom")
	}

	_, err1 := cb.Execute(fail)
	require.Error(t, err1)
	assert.NotErrorIs(t, err1, gobreaker.ErrOpenState) // still closed, below MinRequests

	_, err2 := cb.Execute(fail)
	require.Error(t, err2)
	assert.NotErrorIs(t, err2, gobreaker.ErrOpenState) // this is the request that trips it

	_, err3 := cb.Execute(fail)
	assert.ErrorIs(t, err3, gobreaker.ErrOpenState) // now open: short circuits without calling fail
}

func TestNewBreaker_StaysClosedBelowFailureRatio(t *testing.T) {
	cfg := BreakerConfig{FailureRatio: 0.9, MinRequests: 2, OpenTimeout: time.Minute}
	cb := newBreaker("test", cfg)

	ok := func() (interface{}, error) { return "fine", nil }
	fail := func() (interface{}, error) { return nil, errors.New("boom") }

	_, err := cb.Execute(ok)
	require.NoError(t, err)
	_, err = cb.Execute(fail)
	require.Error(t, err)
	_, err = cb.Execute(ok)
	assert.NoError(t, err) // ratio 1/3 < 0.9, breaker never trips
}

func TestClassifyBreakerErr_OpenStateBecomesRateLimited(t *testing.T) {
	perr := classifyBreakerErr("options", gobreaker.ErrOpenState)
	assert.Equal(t, KindRateLimited, perr.Kind)
	assert.False(t, perr.Retryable)
}
