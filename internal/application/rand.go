package application

import "math/rand"

// Rand abstracts the random source so tests can feed deterministic
// sequences. Every confidence value and fallback class in this app is a
// uniform draw, so the abstraction sits next to Clock.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// SystemRand delegates to the shared math/rand source, which is safe for
// concurrent requests.
type SystemRand struct{}

func (SystemRand) Float64() float64 { return rand.Float64() }
func (SystemRand) Intn(n int) int   { return rand.Intn(n) }
