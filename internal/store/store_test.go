package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradingengine/internal/clock"
)

func TestMemoryBackend_PutGetExpire(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	b := NewMemoryBackend(clk)

	ok, err := b.Put("k1", []byte(`"v1"`), time.Minute, clk.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	raw, found, err := b.Get("k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"v1"`, string(raw))

	clk.Advance(2 * time.Minute)
	_, found, err = b.Get("k1")
	require.NoError(t, err)
	assert.False(t, found, "entry should have expired")
}

func TestMemoryBackend_OutOfOrderWriteDropped(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	b := NewMemoryBackend(clk)

	newer := clk.Now()
	older := newer.Add(-time.Minute)

	ok, err := b.Put("k1", []byte(`"new"`), time.Minute, newer)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Put("k1", []byte(`"old"`), time.Minute, older)
	require.NoError(t, err)
	assert.False(t, ok, "a write older than the existing entry must be dropped")

	raw, found, err := b.Get("k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"new"`, string(raw))
}

func TestMemoryBackend_Prune(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	b := NewMemoryBackend(clk)

	_, _ = b.Put("k1", []byte("1"), time.Minute, clk.Now())
	_, _ = b.Put("k2", []byte("2"), 5*time.Minute, clk.Now())

	clk.Advance(2 * time.Minute)
	removed := b.Prune()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, b.Len())
}
