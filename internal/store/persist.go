package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// PersistError reports that a durable write failed after exhausting the
// configured retry attempts. The previously persisted file is intact: the
// atomic rename either fully replaced it or left it untouched.
type PersistError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %d attempts exhausted: %v", e.Path, e.Attempts, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Persist serializes the working copy and durably replaces the store file.
//
// Failures are retried with linearly increasing delay (attempt number
// times the base delay). Exhausting the attempts returns a PersistError
// rather than silently dropping the write.
func (s *Store) Persist(ctx context.Context) error {
	data, err := s.encode()
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if lastErr = s.writeFile(s.path, data); lastErr == nil {
			return nil
		}
		slog.Warn("persist attempt failed",
			"path", s.path,
			"attempt", attempt,
			"max_attempts", s.maxAttempts,
			"error", lastErr,
		)
		if attempt < s.maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * s.baseDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return &PersistError{Path: s.path, Attempts: s.maxAttempts, Err: lastErr}
}

// WriteFileAtomic writes data to a unique temporary file next to path and
// renames it into place, so any reader sees either the old complete file
// or the new complete file, never a partial one. The pid plus a
// time-ordered UUIDv7 keeps temp names from colliding across concurrent
// invocations.
func WriteFileAtomic(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.%d.%s.tmp", path, os.Getpid(), uuid.Must(uuid.NewV7()).String())

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
