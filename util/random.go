package util

import "math/rand"

// Uniform draws from [0, 1). *rand.Rand satisfies it, each sampling
// worker owns one so no locking is needed.
type Uniform interface {
	Float64() float64
}

// NewUniform returns a generator seeded for one worker.
func NewUniform(seed int64, worker int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(worker)*7919))
}
