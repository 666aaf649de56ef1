package rng

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewSeed generates a random seed string using crypto/rand.
//
// A fresh seed is drawn once per generation when none was supplied and is
// persisted with the record, so the run stays replayable even though the
// seed was not pre-specified.
func NewSeed() (string, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read random seed: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
