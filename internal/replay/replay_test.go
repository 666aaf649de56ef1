package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gambit/internal/chessrules"
	"github.com/roach88/gambit/internal/game"
	"github.com/roach88/gambit/internal/record"
	"github.com/roach88/gambit/internal/testutil"
)

func scriptedVerifier(baseDir string) *Verifier {
	five := []string{"a", "b", "c", "d", "e"}
	return New(game.New(testutil.Script(five, five, five, five, five, five)), baseDir)
}

func TestResolveWithin(t *testing.T) {
	base := t.TempDir()

	got, err := ResolveWithin(base, "games.json")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	_, err = ResolveWithin(base, filepath.Join("sub", "dir", "games.json"))
	assert.NoError(t, err)
}

func TestResolveWithin_RejectsEscapes(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(t.TempDir(), "games.json")

	for _, path := range []string{
		"../games.json",
		filepath.Join("..", "..", "etc", "passwd"),
		outside,
		"sub/../../games.json",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := ResolveWithin(base, path)
			require.Error(t, err)

			var pse *PathSecurityError
			assert.ErrorAs(t, err, &pse)
		})
	}
}

func TestResolveWithin_RejectsSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "games.json")
	require.NoError(t, os.WriteFile(target, []byte("[]"), 0o644))

	link := filepath.Join(base, "sneaky.json")
	require.NoError(t, os.Symlink(target, link))

	_, err := ResolveWithin(base, "sneaky.json")
	var pse *PathSecurityError
	assert.ErrorAs(t, err, &pse)
}

func writeStore(t *testing.T, dir string, recs []record.Record) string {
	t.Helper()
	path := filepath.Join(dir, "games.json")
	data, err := json.MarshalIndent(recs, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadStore(t *testing.T) {
	base := t.TempDir()
	want := []record.Record{{Seed: "a"}, {Seed: "b"}}
	writeStore(t, base, want)

	v := scriptedVerifier(base)
	got, err := v.LoadStore("games.json")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadStore_Missing(t *testing.T) {
	v := scriptedVerifier(t.TempDir())
	_, err := v.LoadStore("games.json")
	assert.ErrorIs(t, err, ErrStoreRead)
}

func TestLoadStore_Malformed(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "games.json"), []byte("nope"), 0o644))

	v := scriptedVerifier(base)
	_, err := v.LoadStore("games.json")
	assert.ErrorIs(t, err, ErrStoreRead)
}

func TestLoadStore_NoReadOnEscape(t *testing.T) {
	v := scriptedVerifier(t.TempDir())
	_, err := v.LoadStore("../outside.json")

	var pse *PathSecurityError
	assert.ErrorAs(t, err, &pse)
	assert.NotErrorIs(t, err, ErrStoreRead, "rejection must happen before any I/O")
}

func TestByIndex_MostRecentFirst(t *testing.T) {
	recs := make([]record.Record, 5)
	for i := range recs {
		recs[i] = record.Record{Seed: fmt.Sprintf("s%d", i)}
	}

	newest, err := ByIndex(recs, 0)
	require.NoError(t, err)
	assert.Equal(t, "s4", newest.Seed, "index 0 is the chronologically last entry")

	oldest, err := ByIndex(recs, 4)
	require.NoError(t, err)
	assert.Equal(t, "s0", oldest.Seed)
}

func TestByIndex_OutOfRange(t *testing.T) {
	recs := []record.Record{{Seed: "only"}}

	for _, n := range []int{-1, 1, 99} {
		_, err := ByIndex(recs, n)
		var ie *IndexError
		require.ErrorAs(t, err, &ie, "index %d", n)
	}
}

func TestReplay_MatchesStoredRecord(t *testing.T) {
	base := t.TempDir()
	v := scriptedVerifier(base)

	g, err := v.gen.Generate(context.Background(), game.Options{Seed: "abc123", MaxPlies: 6})
	require.NoError(t, err)
	rec := g.Record("test", time.Now())

	cmp, err := v.Replay(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, cmp.FinalPositionOK)
	assert.True(t, cmp.TranscriptOK)
	assert.True(t, cmp.Match())
}

func TestReplay_UsesStoredPlyCountAsCap(t *testing.T) {
	v := scriptedVerifier(t.TempDir())

	// Record stops short of where the verifier's own run would: the
	// stored ply count must cap the reconstruction.
	g, err := v.gen.Generate(context.Background(), game.Options{Seed: "abc123", MaxPlies: 3})
	require.NoError(t, err)
	rec := g.Record("test", time.Now())

	cmp, err := v.Replay(context.Background(), rec)
	require.NoError(t, err)
	assert.Len(t, cmp.Replayed.Moves, 3)
	assert.True(t, cmp.Match())
}

func TestReplay_MismatchIsDiagnosticNotError(t *testing.T) {
	v := scriptedVerifier(t.TempDir())

	g, err := v.gen.Generate(context.Background(), game.Options{Seed: "abc123", MaxPlies: 4})
	require.NoError(t, err)
	rec := g.Record("test", time.Now())
	rec.Transcript = "tampered"
	rec.FinalPosition = "drifted"

	cmp, err := v.Replay(context.Background(), rec)
	require.NoError(t, err, "drift is reported, not fatal")
	assert.False(t, cmp.TranscriptOK)
	assert.False(t, cmp.FinalPositionOK)
	assert.False(t, cmp.Match())
}

func TestReplay_RealRulesRoundTrip(t *testing.T) {
	gen := game.New(chessrules.New)
	v := New(gen, t.TempDir())

	g, err := gen.Generate(context.Background(), game.Options{Seed: "abc123", MaxPlies: 20})
	require.NoError(t, err)
	rec := g.Record("test", time.Now())

	cmp, err := v.Replay(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, cmp.Match(), "same seed and rules version must reproduce byte-identically")
}

func TestReplaySeed(t *testing.T) {
	v := scriptedVerifier(t.TempDir())

	a, err := v.ReplaySeed(context.Background(), "abc123", 4)
	require.NoError(t, err)
	b, err := v.ReplaySeed(context.Background(), "abc123", 4)
	require.NoError(t, err)
	assert.Equal(t, a.Transcript, b.Transcript)
}
