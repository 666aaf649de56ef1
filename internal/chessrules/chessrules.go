// Package chessrules adapts github.com/corentings/chess/v2 to the
// generator's rules-provider contract.
//
// The library's move generation order is deterministic for a given
// version, which is what the reproducibility guarantee requires; replays
// across library versions are explicitly not guaranteed to match.
package chessrules

import (
	"github.com/corentings/chess/v2"

	"github.com/roach88/gambit/internal/game"
)

// Match wraps one in-progress chess game.
type Match struct {
	g *chess.Game
}

// New starts a match at the standard starting position.
func New() game.Rules {
	return &Match{g: chess.NewGame()}
}

// LegalMoves returns the legal moves in SAN, in the library's generation
// order.
func (m *Match) LegalMoves() []string {
	pos := m.g.Position()
	valid := m.g.ValidMoves()
	out := make([]string, len(valid))
	for i := range valid {
		out[i] = chess.AlgebraicNotation{}.Encode(pos, &valid[i])
	}
	return out
}

// Push applies a SAN move to the match.
func (m *Match) Push(san string) error {
	return m.g.PushNotationMove(san, chess.AlgebraicNotation{}, nil)
}

// Outcome maps the library's terminal detection onto the generator's
// classification. Draws the library only marks eligible (threefold
// repetition, fifty-move rule) are claimed here, since an unattended game
// has no player to claim them.
func (m *Match) Outcome() game.Termination {
	switch m.g.Method() {
	case chess.Checkmate:
		return game.TerminationCheckmate
	case chess.Stalemate:
		return game.TerminationStalemate
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return game.TerminationThreefoldRepetition
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		return game.TerminationFiftyMoveRule
	case chess.InsufficientMaterial:
		return game.TerminationInsufficientMaterial
	}
	if m.g.Outcome() == chess.Draw {
		return game.TerminationDraw
	}
	for _, method := range m.g.EligibleDraws() {
		switch method {
		case chess.ThreefoldRepetition:
			_ = m.g.Draw(method)
			return game.TerminationThreefoldRepetition
		case chess.FiftyMoveRule:
			_ = m.g.Draw(method)
			return game.TerminationFiftyMoveRule
		}
	}
	return game.TerminationNone
}

// SideToMove reports whose turn it is.
func (m *Match) SideToMove() game.Side {
	if m.g.Position().Turn() == chess.White {
		return game.White
	}
	return game.Black
}

// FEN returns the compact encoding of the current position.
func (m *Match) FEN() string {
	return m.g.FEN()
}
