// Package replay reconstructs stored games from their recorded seeds and
// compares the reconstruction against what was persisted.
//
// A mismatch is a diagnostic, not an error: it signals rules-engine or
// library drift, which is explicitly outside the reproducibility
// guarantee.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/gambit/internal/game"
	"github.com/roach88/gambit/internal/record"
)

// IndexError reports a most-recent-relative index with no stored record.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range: store holds %d record(s)", e.Index, e.Len)
}

// ErrStoreRead wraps store read or parse failures so the CLI can map them
// to their own exit code.
var ErrStoreRead = errors.New("store read failed")

// Comparison is the structured result of replaying a stored record.
type Comparison struct {
	Record          record.Record `json:"record"`
	Replayed        *game.Game    `json:"-"`
	FinalPositionOK bool          `json:"final_position_match"`
	TranscriptOK    bool          `json:"transcript_match"`
}

// Match reports whether the reconstruction matched the record entirely.
func (c *Comparison) Match() bool {
	return c.FinalPositionOK && c.TranscriptOK
}

// Verifier replays stored records through a generator.
type Verifier struct {
	gen     *game.Generator
	baseDir string
}

// New creates a verifier. Alternate store paths must resolve inside
// baseDir.
func New(gen *game.Generator, baseDir string) *Verifier {
	return &Verifier{gen: gen, baseDir: baseDir}
}

// LoadStore reads a store file after the path-safety check. Unlike the
// writer side, a missing or corrupt store is an error here: there is
// nothing sensible to verify against.
func (v *Verifier) LoadStore(path string) ([]record.Record, error) {
	resolved, err := ResolveWithin(v.baseDir, path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	var recs []record.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStoreRead, resolved, err)
	}
	return recs, nil
}

// ByIndex selects the n-th most recent record: 0 is the chronologically
// last entry, len-1 the first.
func ByIndex(recs []record.Record, n int) (record.Record, error) {
	if n < 0 || n >= len(recs) {
		return record.Record{}, &IndexError{Index: n, Len: len(recs)}
	}
	return recs[len(recs)-1-n], nil
}

// Replay reconstructs rec's run from its seed and compares it against the
// stored transcript and final position.
//
// The stored ply count is used as the cap so both runs count an equal
// number of steps, even though the verifier's own stopping condition
// would otherwise also apply.
func (v *Verifier) Replay(ctx context.Context, rec record.Record) (*Comparison, error) {
	g, err := v.gen.Generate(ctx, game.Options{
		Seed:      rec.Seed,
		MaxPlies:  rec.PlyCount,
		Algorithm: rec.RNGAlgorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("replay seed %q: %w", rec.Seed, err)
	}

	return &Comparison{
		Record:          rec,
		Replayed:        g,
		FinalPositionOK: g.FinalPosition == rec.FinalPosition,
		TranscriptOK:    g.Transcript == rec.Transcript,
	}, nil
}

// ReplaySeed reconstructs a run for an explicit seed with no stored
// record to compare against.
func (v *Verifier) ReplaySeed(ctx context.Context, seed string, maxPlies int) (*game.Game, error) {
	return v.gen.Generate(ctx, game.Options{Seed: seed, MaxPlies: maxPlies})
}
