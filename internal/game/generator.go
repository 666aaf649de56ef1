// Package game drives randomly-played matches against an external rules
// provider using a seeded float stream, producing reproducible records.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/gambit/internal/record"
	"github.com/roach88/gambit/internal/rng"
)

// Options selects the seed, stopping condition and stream algorithm for a
// single generation run.
type Options struct {
	// Seed is the stream seed. Empty draws a fresh one from crypto/rand;
	// the drawn value is reported in the output for persistence.
	Seed string

	// MaxPlies caps the number of half-moves played. Must be >= 0.
	MaxPlies int

	// Algorithm forces a specific, previously recorded stream algorithm.
	// Empty selects per PreferExternal. Replay sets this from the stored
	// record so both runs consume identical draws.
	Algorithm string

	// PreferExternal requests the external generator when Algorithm is
	// empty. If it is unavailable the fallback is used transparently.
	PreferExternal bool
}

// Game is the outcome of one generated run.
//
// Determinism contract: identical seed, ply cap, algorithm selection and
// rules-engine behavior produce a byte-identical Game on every invocation.
type Game struct {
	Seed             string
	Algorithm        string
	AlgorithmVersion string
	Moves            []string
	FinalPosition    string
	Transcript       string
	Result           string
	Reason           string
	Status           string
	Message          string
}

// Record converts the game into its persisted form.
func (g *Game) Record(process string, completedAt time.Time) record.Record {
	return record.Record{
		Process:       process,
		Message:       g.Message,
		Status:        g.Status,
		CompletedAt:   completedAt.UTC().Format(time.RFC3339),
		PlyCount:      len(g.Moves),
		Result:        g.Result,
		Reason:        g.Reason,
		FinalPosition: g.FinalPosition,
		Transcript:    g.Transcript,
		RNGAlgorithm:  g.Algorithm,
		RNGVersion:    g.AlgorithmVersion,
		Seed:          g.Seed,
	}
}

// Generator produces random games against a rules provider.
type Generator struct {
	newMatch Factory
}

// New creates a generator that starts matches with the given factory.
func New(newMatch Factory) *Generator {
	return &Generator{newMatch: newMatch}
}

// Generate plays one game of at most opts.MaxPlies half-moves.
//
// Exactly one stream draw is consumed per recorded ply. If the provider
// reports no legal moves before any terminal classification, generation
// stops and the game is recorded as unfinished; it never loops or faults.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Game, error) {
	if opts.MaxPlies < 0 {
		return nil, fmt.Errorf("max plies must be >= 0, got %d", opts.MaxPlies)
	}

	seed := opts.Seed
	if seed == "" {
		drawn, err := rng.NewSeed()
		if err != nil {
			return nil, err
		}
		seed = drawn
	}

	var (
		stream  rng.Stream
		alg     string
		version string
	)
	if opts.Algorithm != "" {
		s, v, err := rng.ByName(seed, opts.Algorithm)
		if err != nil {
			return nil, err
		}
		stream, alg, version = s, opts.Algorithm, v
	} else {
		stream, alg, version = rng.New(seed, opts.PreferExternal)
	}

	match := g.newMatch()
	moves := make([]string, 0, opts.MaxPlies)
	term := TerminationNone
	noMoves := false

	for len(moves) < opts.MaxPlies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t := match.Outcome(); t != TerminationNone {
			term = t
			break
		}

		legal := match.LegalMoves()
		if len(legal) == 0 {
			// Provider failed to classify a terminal position; stop
			// and record the game as unfinished rather than fault.
			noMoves = true
			break
		}

		idx := int(stream.Next() * float64(len(legal)))
		if idx >= len(legal) {
			// float rounding at the top of the range
			idx = len(legal) - 1
		}
		san := legal[idx]
		if err := match.Push(san); err != nil {
			return nil, fmt.Errorf("apply move %q at ply %d: %w", san, len(moves), err)
		}
		moves = append(moves, san)
	}

	if term == TerminationNone && !noMoves {
		// The cap may have landed exactly on a terminal position.
		term = match.Outcome()
	}

	out := &Game{
		Seed:             seed,
		Algorithm:        alg,
		AlgorithmVersion: version,
		Moves:            moves,
		FinalPosition:    match.FEN(),
	}
	classify(out, term, match.SideToMove(), noMoves)
	out.Transcript = record.BuildTranscript(out.Result, moves)
	out.Message = fmt.Sprintf("random game %s after %d plies (%s)", out.Result, len(moves), out.Reason)
	return out, nil
}

// classify derives result code, reason and status from the terminal
// classification. On checkmate the winner is the side NOT to move.
func classify(g *Game, term Termination, toMove Side, noMoves bool) {
	switch term {
	case TerminationCheckmate:
		if toMove == White {
			g.Result = record.ResultBlackWins
		} else {
			g.Result = record.ResultWhiteWins
		}
		g.Reason = term.String()
		g.Status = record.StatusCompleted
	case TerminationStalemate,
		TerminationThreefoldRepetition,
		TerminationFiftyMoveRule,
		TerminationInsufficientMaterial,
		TerminationDraw:
		g.Result = record.ResultDraw
		g.Reason = term.String()
		g.Status = record.StatusCompleted
	default:
		g.Result = record.ResultUnfinished
		g.Status = record.StatusUnfinished
		if noMoves {
			g.Reason = "no legal moves reported"
		} else {
			g.Reason = "ply limit reached"
		}
	}
}
