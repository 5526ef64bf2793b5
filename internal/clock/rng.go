package clock

import (
	"math/rand"
	"time"
)

// RNG abstracts the PRNG the engine uses for jittered backoff in the
// MarketContextBuilder retry loop, so tests can pin it.
type RNG interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64
}

// SeededRNG wraps math/rand.Rand behind the RNG interface.
type SeededRNG struct {
	r *rand.Rand
}

// NewSeededRNG returns an RNG deterministically seeded, for tests.
func NewSeededRNG(seed int64) *SeededRNG {
	return &SeededRNG{r: rand.New(rand.NewSource(seed))}
}

func (s *SeededRNG) Float64() float64 { return s.r.Float64() }

// NewProcessRNG returns the production default: seeded once from a real
// clock tick at process start, never reseeded per call.
func NewProcessRNG() *SeededRNG {
	return NewSeededRNG(time.Now().UnixNano())
}
