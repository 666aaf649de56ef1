// Package store implements the size-bounded durable log of game records.
//
// The store is a single JSON array, human-readably indented, rewritten
// wholesale on every persist via an atomic temp-file-then-rename sequence.
// Records are only ever appended at the tail or evicted from the head
// (oldest first); they are never reordered or mutated in place.
//
// Single-writer discipline: only the scheduler's serialized invocation
// performs load, append, trim and persist. There is no file lock;
// concurrent independent writers to the same path are unsupported.
package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/gambit/internal/record"
)

// Defaults applied by New when an option is zero.
const (
	DefaultMaxBytes    = 1 << 20 // 1 MiB
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
)

// Options configures a Store.
type Options struct {
	// Path is the persisted store file.
	Path string

	// MaxBytes is the serialized byte budget enforced by Trim.
	MaxBytes int

	// MaxAttempts bounds persist retries; BaseDelay scales the linear
	// backoff between them (attempt number times BaseDelay).
	MaxAttempts int
	BaseDelay   time.Duration
}

// Store holds the in-memory working copy of the record sequence.
// Insertion order is chronological order is persisted order.
type Store struct {
	path        string
	maxBytes    int
	maxAttempts int
	baseDelay   time.Duration

	records []record.Record

	// writeFile is swappable for failure injection in tests.
	writeFile func(path string, data []byte) error
}

// New creates a store. The file is not touched until Load or Persist.
func New(opts Options) *Store {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	return &Store{
		path:        opts.Path,
		maxBytes:    opts.MaxBytes,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		writeFile:   WriteFileAtomic,
	}
}

// Path returns the persisted store file path.
func (s *Store) Path() string {
	return s.path
}

// Records returns the working copy. Callers must treat it as read-only.
func (s *Store) Records() []record.Record {
	return s.records
}

// Len returns the number of records in the working copy.
func (s *Store) Len() int {
	return len(s.records)
}

// Load reads the persisted sequence into the working copy.
//
// A missing file yields an empty sequence. Malformed or non-array content
// also yields an empty sequence with a warning: losing a corrupt store is
// an accepted tradeoff, but never a silent one.
func (s *Store) Load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("store unreadable, starting empty", "path", s.path, "error", err)
		}
		s.records = nil
		return
	}

	var recs []record.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		slog.Warn("store malformed, starting empty", "path", s.path, "error", err)
		s.records = nil
		return
	}
	s.records = recs
}

// Append adds a record to the tail of the working copy.
func (s *Store) Append(rec record.Record) {
	s.records = append(s.records, rec)
}

// Trim evicts oldest records until the serialized sequence fits the byte
// budget. A single record that alone exceeds the budget is tolerated:
// evicting it would leave nothing to persist.
func (s *Store) Trim() (evicted int, err error) {
	for len(s.records) > 1 {
		data, err := s.encode()
		if err != nil {
			return evicted, err
		}
		if len(data) <= s.maxBytes {
			break
		}
		s.records = s.records[1:]
		evicted++
	}
	return evicted, nil
}

// encode serializes the working copy in the persisted format. An empty
// working copy serializes as an empty array, not JSON null.
func (s *Store) encode() ([]byte, error) {
	recs := s.records
	if recs == nil {
		recs = []record.Record{}
	}
	return json.MarshalIndent(recs, "", "  ")
}
