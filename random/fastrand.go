package random

// FastRand is a seedable xorshift64 generator for reproducible draws
// Not safe for concurrent use
type FastRand struct {
	state uint64
}

// NewFastRand creates a generator, a zero seed is replaced with 1
func NewFastRand(seed uint64) *FastRand {
	if seed == 0 {
		seed = 1
	}
	return &FastRand{state: seed}
}

// Next advances the generator
func (r *FastRand) Next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// IntN returns a value in [0, n), 0 for non-positive n
func (r *FastRand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint64(n))
}

// Float64 returns a value in [0, 1) from the top 53 bits
func (r *FastRand) Float64() float64 {
	return float64(r.Next()>>11) / (1 << 53)
}
