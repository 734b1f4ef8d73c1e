package common

import (
	"math/rand/v2"
	"sync"
)

// RNG is the random source injected into sampling, lifecycle jitter and trails.
// Implementations need not be safe for concurrent use unless documented.
type RNG interface {
	// Float32 returns a uniform value in [0, 1).
	Float32() float32

	// IntN returns a uniform value in [0, n). Panics if n <= 0.
	IntN(n int) int

	// Int64 returns a non-negative pseudo-random int64.
	Int64() int64
}

// NewRNG returns a deterministic PCG-backed RNG for the given seed.
//
// Parameters:
//   - seed: the seed; equal seeds produce equal sequences
//
// Returns:
//   - RNG: the generator
func NewRNG(seed uint64) RNG {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// lockedRNG serializes access to an underlying RNG.
type lockedRNG struct {
	mu  sync.Mutex
	rng RNG
}

// NewLockedRNG wraps r so it can be shared between goroutines.
func NewLockedRNG(r RNG) RNG {
	return &lockedRNG{rng: r}
}

func (l *lockedRNG) Float32() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float32()
}

func (l *lockedRNG) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.IntN(n)
}

func (l *lockedRNG) Int64() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Int64()
}
