// Package random provides bounded random picks used by the interaction loop
package random

import (
	"math/rand/v2"
	"time"
)

// Source is the minimal generator the helpers draw from
// *rand.Rand from math/rand/v2 and *FastRand both satisfy it
type Source interface {
	IntN(n int) int
	Float64() float64
}

// globalSource draws from the concurrency-safe math/rand/v2 top-level generator
type globalSource struct{}

func (globalSource) IntN(n int) int   { return rand.IntN(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

// Default is used when a nil Source is passed
var Default Source = globalSource{}

func pick(src Source) Source {
	if src == nil {
		return Default
	}
	return src
}

// Int returns a uniform integer in [min, max], bounds swapped if reversed
func Int(src Source, min, max int) int {
	if min > max {
		min, max = max, min
	}
	return min + pick(src).IntN(max-min+1)
}

// Duration returns a uniform duration in [min, max] at millisecond granularity
func Duration(src Source, min, max time.Duration) time.Duration {
	ms := Int(src, int(min/time.Millisecond), int(max/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

// Chance reports true with probability p
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return pick(src).Float64() < p
}

// Choice returns a uniform element of pool, ok is false for an empty pool
func Choice[T any](src Source, pool []T) (T, bool) {
	var zero T
	if len(pool) == 0 {
		return zero, false
	}
	return pool[pick(src).IntN(len(pool))], true
}

// ChoiceAvoidLast returns a uniform element of pool that differs from last
// whenever pool has another distinct member to offer
func ChoiceAvoidLast[T comparable](src Source, pool []T, last T) (T, bool) {
	if len(pool) <= 1 {
		return Choice(src, pool)
	}

	candidates := make([]T, 0, len(pool))
	for _, v := range pool {
		if v != last {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		// Every member equals last, repetition is unavoidable
		return pool[0], true
	}
	return Choice(src, candidates)
}
