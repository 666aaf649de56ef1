package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gambit/internal/record"
)

func tempStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "games.json")
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = 1 // keep retry tests fast
	}
	return New(opts)
}

// padded builds a record whose serialized size is dominated by the
// transcript padding, for byte-budget scenarios.
func padded(seed string, pad int) record.Record {
	return record.Record{
		Seed:          seed,
		Status:        record.StatusUnfinished,
		Result:        record.ResultUnfinished,
		FinalPosition: "pos-" + seed,
		Transcript:    strings.Repeat("x", pad),
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := tempStore(t, Options{})
	s.Load()
	assert.Zero(t, s.Len())
}

func TestLoad_MalformedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := tempStore(t, Options{Path: path})
	s.Load()
	assert.Zero(t, s.Len(), "corrupt store resets to empty")
}

func TestLoad_NonArrayContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"seed":"a"}`), 0o644))

	s := tempStore(t, Options{Path: path})
	s.Load()
	assert.Zero(t, s.Len(), "non-sequence store resets to empty")
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	s := tempStore(t, Options{})
	want := []record.Record{
		padded("a", 10),
		padded("b", 20),
		{Seed: "c", RNGAlgorithm: "mulberry32", PlyCount: 3, Message: "random game * after 3 plies"},
	}
	for _, r := range want {
		s.Append(r)
	}
	require.NoError(t, s.Persist(context.Background()))

	loaded := tempStore(t, Options{Path: s.Path()})
	loaded.Load()
	assert.Equal(t, want, loaded.Records())
}

func TestPersist_EmptyStoreWritesArray(t *testing.T) {
	s := tempStore(t, Options{})
	require.NoError(t, s.Persist(context.Background()))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestPersist_IndentedUTF8Array(t *testing.T) {
	s := tempStore(t, Options{})
	s.Append(padded("a", 10))
	require.NoError(t, s.Persist(context.Background()))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {"), "store should be an indented array")

	var recs []record.Record
	require.NoError(t, json.Unmarshal(data, &recs))
	require.Len(t, recs, 1)
}

func TestTrim_EvictsOldestUntilBudget(t *testing.T) {
	// Budget 1024 with ~500-byte records: the third append pushes the
	// serialized size over budget and the oldest record is evicted.
	s := tempStore(t, Options{MaxBytes: 1024})

	for _, seed := range []string{"first", "second", "third"} {
		s.Append(padded(seed, 250))
		evicted, err := s.Trim()
		require.NoError(t, err)
		require.NoError(t, s.Persist(context.Background()))

		if seed == "third" {
			assert.Equal(t, 1, evicted)
		} else {
			assert.Zero(t, evicted)
		}
	}

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), 1024)

	var recs []record.Record
	require.NoError(t, json.Unmarshal(data, &recs))
	require.Len(t, recs, 2)
	// Head eviction, never reordering: the oldest record is gone.
	assert.Equal(t, "second", recs[0].Seed)
	assert.Equal(t, "third", recs[1].Seed)
}

func TestTrim_SingleOversizedRecordTolerated(t *testing.T) {
	s := tempStore(t, Options{MaxBytes: 256})
	s.Append(padded("huge", 4096))

	evicted, err := s.Trim()
	require.NoError(t, err)
	assert.Zero(t, evicted)
	assert.Equal(t, 1, s.Len(), "an irreducible oversized record is kept")
}

func TestTrim_ReducesToSingleOversizedRecord(t *testing.T) {
	s := tempStore(t, Options{MaxBytes: 256})
	s.Append(padded("old", 4096))
	s.Append(padded("new", 4096))

	evicted, err := s.Trim()
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "new", s.Records()[0].Seed)
}

func TestTrim_NoopUnderBudget(t *testing.T) {
	s := tempStore(t, Options{MaxBytes: 1 << 20})
	s.Append(padded("a", 100))
	s.Append(padded("b", 100))

	evicted, err := s.Trim()
	require.NoError(t, err)
	assert.Zero(t, evicted)
	assert.Equal(t, 2, s.Len())
}
