// Package rng provides the deterministic number stream behind every random
// decision in a run. The whole generator state is a single uint32, so a run
// can be saved, restored and replayed from that one value.
package rng

// Rng is a seeded pseudo-random generator (mulberry32 mix).
// Two generators with the same state always produce the same sequence.
type Rng struct {
	state uint32
}

// New creates a generator from a seed.
func New(seed uint32) *Rng {
	return &Rng{state: seed}
}

// Next returns a float64 in [0, 1).
func (r *Rng) Next() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}

// Int returns floor(Next()*max). It returns 0 for max <= 0 without
// advancing the stream.
func (r *Rng) Int(max int) int {
	if max <= 0 {
		return 0
	}
	return int(r.Next() * float64(max))
}

// Chance reports whether a draw falls below p.
func (r *Rng) Chance(p float64) bool {
	return r.Next() < p
}

// State returns the internal state for persistence.
func (r *Rng) State() uint32 {
	return r.state
}

// Restore replaces the internal state with a previously saved value.
func (r *Rng) Restore(state uint32) {
	r.state = state
}

// Clone returns an independent generator at the same position.
func (r *Rng) Clone() *Rng {
	return &Rng{state: r.state}
}

// Pick returns a random element of s. s must be non-empty.
func Pick[T any](r *Rng, s []T) T {
	return s[r.Int(len(s))]
}

// Shuffle permutes s in place (Fisher-Yates, last to first) and returns it.
func Shuffle[T any](r *Rng, s []T) []T {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Int(i + 1)
		s[i], s[j] = s[j], s[i]
	}
	return s
}
