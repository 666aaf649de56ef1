package rng

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSeed_KnownValues(t *testing.T) {
	// FNV-1a offset basis: hashing the empty string is the identity.
	assert.Equal(t, uint32(2166136261), HashSeed(""))
	assert.Equal(t, uint32(951228933), HashSeed("abc123"))
}

func TestMulberry32_KnownVectors(t *testing.T) {
	// First draws for seed "abc123". These values are load-bearing:
	// stored records hash this algorithm's output, so any drift here
	// breaks replay of historical data.
	s, name, version := New("abc123", false)
	require.Equal(t, AlgMulberry32, name)
	require.Empty(t, version)

	assert.Equal(t, 0.9386920682154596, s.Next())
	assert.Equal(t, 0.0011201018933206797, s.Next())
	assert.Equal(t, 0.22028766153380275, s.Next())
	assert.Equal(t, 0.08689288166351616, s.Next())
}

func TestStreamDeterminism_Mulberry32(t *testing.T) {
	a, _, _ := New("determinism-check", false)
	b, _, _ := New("determinism-check", false)

	for i := 0; i < 10000; i++ {
		require.Equal(t, a.Next(), b.Next(), "draw %d diverged", i)
	}
}

func TestStreamDeterminism_PCG32(t *testing.T) {
	a, name, version := New("determinism-check", true)
	require.Equal(t, AlgPCG32, name)
	require.Equal(t, "v2", version)

	b, _, _ := New("determinism-check", true)
	for i := 0; i < 10000; i++ {
		require.Equal(t, a.Next(), b.Next(), "draw %d diverged", i)
	}
}

func TestStream_Range(t *testing.T) {
	s, _, _ := New("range-check", false)
	for i := 0; i < 1000; i++ {
		d := s.Next()
		require.GreaterOrEqual(t, d, 0.0)
		require.Less(t, d, 1.0)
	}
}

func TestByName_RoundTrip(t *testing.T) {
	// Replay requests the recorded algorithm by name; the stream must
	// match a generation-time stream for the same seed.
	gen, name, _ := New("replay-verify", false)
	rep, version, err := ByName("replay-verify", name)
	require.NoError(t, err)
	assert.Empty(t, version)

	for i := 0; i < 100; i++ {
		require.Equal(t, gen.Next(), rep.Next())
	}
}

func TestByName_EmptyDefaultsToFallback(t *testing.T) {
	// Records written before the algorithm field existed replay with
	// the fallback.
	s, _, err := ByName("legacy", "")
	require.NoError(t, err)

	want, _, _ := New("legacy", false)
	assert.Equal(t, want.Next(), s.Next())
}

func TestByName_Unknown(t *testing.T) {
	_, _, err := ByName("abc123", "xorshift128")
	assert.Error(t, err)
}

func TestNew_FallbackWhenExternalUnavailable(t *testing.T) {
	saved := externalFactory
	externalFactory = nil
	defer func() { externalFactory = saved }()

	s, name, version := New("abc123", true)
	assert.Equal(t, AlgMulberry32, name)
	assert.Empty(t, version)
	assert.Equal(t, 0.9386920682154596, s.Next())

	_, _, err := ByName("abc123", AlgPCG32)
	assert.Error(t, err, "replay must not silently substitute algorithms")
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)

	_, err = hex.DecodeString(a)
	assert.NoError(t, err, "seed should be hex-encoded")
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b, "two fresh seeds should differ")
}
