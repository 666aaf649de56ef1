// Package rng provides seeded float streams for deterministic game
// generation and replay.
//
// A Stream yields values in [0,1) and is not rewindable: replay always
// constructs a fresh stream from the same seed rather than reusing one.
// Two algorithms are available:
//
//   - "mulberry32" (fallback): an FNV-1a hash of the seed string feeding a
//     32-bit mixing stream. Historical records depend on this algorithm, so
//     it is reproduced bit-for-bit and never changes.
//   - "pcg32" (external): math/rand/v2 PCG seeded from the same hash.
//
// The algorithm name actually used is persisted with every record so that
// replay can request the same one by name.
package rng

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
)

// Stream is a stateful generator of values in [0,1).
type Stream interface {
	Next() float64
}

// Algorithm names persisted in game records.
const (
	AlgMulberry32 = "mulberry32"
	AlgPCG32      = "pcg32"
)

// pcgVersion identifies the external generator implementation. The
// fallback algorithm carries no version: its output is frozen.
const pcgVersion = "v2"

const (
	fnvOffset = 2166136261
	fnvPrime  = 16777619
)

// HashSeed maps a seed string to an unsigned 32-bit integer using FNV-1a.
func HashSeed(seed string) uint32 {
	h := uint32(fnvOffset)
	for _, r := range seed {
		h = (h ^ uint32(r)) * fnvPrime
	}
	return h
}

// mulberry is the frozen fallback stream. Each draw advances a 32-bit
// state by a Weyl increment and tempers it; uint32 arithmetic wraps
// mod 2^32 by definition, matching the recorded formula exactly.
type mulberry struct {
	t uint32
}

func (m *mulberry) Next() float64 {
	m.t += 0x6D2B79F5
	r := m.t
	r = (r ^ (r >> 15)) * (r | 1)
	r ^= r + (r^(r>>7))*(r|61)
	r ^= r >> 14
	return float64(r) / (1 << 32)
}

type pcgStream struct {
	r *rand.Rand
}

func (p *pcgStream) Next() float64 {
	return p.r.Float64()
}

func newPCG(seed string) Stream {
	h := uint64(HashSeed(seed))
	return &pcgStream{r: rand.New(rand.NewPCG(h, h^0x9E3779B97F4A7C15))}
}

// externalFactory builds the preferred external stream. nil means the
// external generator is unavailable; New then falls back to mulberry32
// and logs the substitution once.
var (
	externalFactory func(seed string) Stream = newPCG
	fallbackOnce    sync.Once
)

// New constructs a stream for the given seed and returns the algorithm
// name actually used plus an optional algorithm version.
//
// When preferExternal is set and the external generator is unavailable the
// fallback is used transparently; this is a notice, not an error.
func New(seed string, preferExternal bool) (Stream, string, string) {
	if preferExternal {
		if externalFactory != nil {
			return externalFactory(seed), AlgPCG32, pcgVersion
		}
		fallbackOnce.Do(func() {
			slog.Info("external rng unavailable, using fallback",
				"requested", AlgPCG32,
				"algorithm", AlgMulberry32,
			)
		})
	}
	return &mulberry{t: HashSeed(seed)}, AlgMulberry32, ""
}

// ByName constructs a stream for an explicitly named algorithm, as read
// back from a stored record. Unknown or unavailable names are errors:
// replaying with a substitute algorithm would silently diverge.
func ByName(seed, name string) (Stream, string, error) {
	switch name {
	case AlgMulberry32, "":
		return &mulberry{t: HashSeed(seed)}, "", nil
	case AlgPCG32:
		if externalFactory == nil {
			return nil, "", fmt.Errorf("rng algorithm %q unavailable", name)
		}
		return externalFactory(seed), pcgVersion, nil
	default:
		return nil, "", fmt.Errorf("unknown rng algorithm %q", name)
	}
}
