// Package upload submits the deduplicated store to an external
// bin-storage endpoint.
//
// Each run is one attempt: a non-success response is logged and skipped,
// and the next scheduled run retries naturally. The endpoint's verbatim
// response is written to a metadata file for transparency.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/roach88/gambit/internal/record"
	"github.com/roach88/gambit/internal/store"
)

// DefaultTimeout bounds a single upload request.
const DefaultTimeout = 30 * time.Second

// StatusError reports a non-success response from the endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload rejected: status %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	// Endpoint is the bin-storage URL the store is POSTed to.
	Endpoint string

	// AccessKey is sent as the X-Master-Key header. Required.
	AccessKey string

	// StorePath is the store file to read; MetaPath receives the
	// endpoint's verbatim response.
	StorePath string
	MetaPath  string

	// Timeout bounds the whole request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client uploads store snapshots.
type Client struct {
	http      *http.Client
	endpoint  string
	accessKey string
	storePath string
	metaPath  string
}

// New creates an upload client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		endpoint:  opts.Endpoint,
		accessKey: opts.AccessKey,
		storePath: opts.StorePath,
		metaPath:  opts.MetaPath,
	}
}

// Run reads the store, removes duplicate entries by final-position key
// (first occurrence kept, order preserved) and submits the result as a
// single private request.
func (c *Client) Run(ctx context.Context) error {
	data, err := os.ReadFile(c.storePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("upload skipped: store not found", "path", c.storePath)
			return nil
		}
		return fmt.Errorf("read store: %w", err)
	}

	var recs []record.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return fmt.Errorf("parse store %s: %w", c.storePath, err)
	}

	deduped := record.DedupByFinalPosition(recs)
	body, err := json.Marshal(deduped)
	if err != nil {
		return fmt.Errorf("encode upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", c.accessKey)
	req.Header.Set("X-Bin-Private", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read upload response: %w", err)
	}

	// Record the verbatim response, success or not, so operators can
	// inspect what the endpoint actually said.
	if c.metaPath != "" {
		if err := store.WriteFileAtomic(c.metaPath, respBody); err != nil {
			slog.Warn("upload metadata write failed", "path", c.metaPath, "error", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	slog.Info("store uploaded",
		"records", len(recs),
		"deduped", len(deduped),
		"bytes", len(body),
		"status", resp.StatusCode,
	)
	return nil
}
