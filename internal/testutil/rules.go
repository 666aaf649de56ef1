// Package testutil provides deterministic test doubles shared across
// packages.
package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/gambit/internal/game"
)

// ScriptedRules is a game.Rules stand-in driven by a fixed table of legal
// moves per ply. It lets tests pin down exactly which draws select which
// indices without depending on a real chess engine.
type ScriptedRules struct {
	// MovesPerPly lists the legal moves offered at each ply, in order.
	// Plies beyond the table report no legal moves.
	MovesPerPly [][]string

	// TerminalAt is the ply at which Outcome starts reporting
	// Termination. Negative means never.
	TerminalAt  int
	Termination game.Termination

	ply     int
	applied []string
}

// Script returns a factory producing fresh matches from the given table,
// never terminal.
func Script(movesPerPly ...[]string) game.Factory {
	return func() game.Rules {
		return &ScriptedRules{MovesPerPly: movesPerPly, TerminalAt: -1}
	}
}

// ScriptTerminal returns a factory whose matches become terminal at the
// given ply with the given classification.
func ScriptTerminal(terminalAt int, term game.Termination, movesPerPly ...[]string) game.Factory {
	return func() game.Rules {
		return &ScriptedRules{MovesPerPly: movesPerPly, TerminalAt: terminalAt, Termination: term}
	}
}

func (r *ScriptedRules) LegalMoves() []string {
	if r.ply < len(r.MovesPerPly) {
		return r.MovesPerPly[r.ply]
	}
	return nil
}

func (r *ScriptedRules) Outcome() game.Termination {
	if r.TerminalAt >= 0 && r.ply >= r.TerminalAt {
		return r.Termination
	}
	return game.TerminationNone
}

func (r *ScriptedRules) Push(san string) error {
	legal := r.LegalMoves()
	for _, mv := range legal {
		if mv == san {
			r.applied = append(r.applied, san)
			r.ply++
			return nil
		}
	}
	return fmt.Errorf("illegal move %q at ply %d", san, r.ply)
}

func (r *ScriptedRules) SideToMove() game.Side {
	if r.ply%2 == 0 {
		return game.White
	}
	return game.Black
}

// FEN encodes the applied moves so distinct games have distinct final
// positions.
func (r *ScriptedRules) FEN() string {
	return fmt.Sprintf("scripted/%d/%s", r.ply, strings.Join(r.applied, ","))
}

// Applied returns the moves pushed so far.
func (r *ScriptedRules) Applied() []string {
	return r.applied
}
