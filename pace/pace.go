// Package pace produces the randomized delays that keep outgoing actions at
// a human cadence.
package pace

import (
	"math/rand/v2"
	"time"

	"gitlab.com/zephyrtronium/pick"
)

// N returns a uniformly random integer in [min, max].
// It returns min when max <= min.
func N(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// Range is an inclusive interval of durations.
type Range struct {
	Min, Max time.Duration
}

// Rand draws a uniformly random duration from the range.
func (r Range) Rand() time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rand.N(r.Max-r.Min+1)
}

// Jitter returns d lengthened by a random duration in [min, max].
func Jitter(d time.Duration, min, max time.Duration) time.Duration {
	return d + Range{Min: min, Max: max}.Rand()
}

// Pacer computes waits between consecutive outgoing commands. Most waits come
// from the base range; occasionally the pacer adds a break, usually short,
// sometimes long, imitating a person looking away from the screen.
type Pacer struct {
	base   Range
	breaks *pick.Dist[Range]
	chance float64
}

// New creates a pacer with the given base delay range and break ranges.
// Breaks occur on one in ten waits, drawn 7:3 short to long.
func New(base, short, long Range) *Pacer {
	return &Pacer{
		base: base,
		breaks: pick.New([]pick.Case[Range]{
			{E: short, W: 7},
			{E: long, W: 3},
		}),
		chance: 0.1,
	}
}

// Next returns the wait before the next command dispatch.
func (p *Pacer) Next() time.Duration {
	d := p.base.Rand()
	if rand.Float64() < p.chance {
		d += p.breaks.Pick(rand.Uint32()).Rand()
	}
	return d
}
