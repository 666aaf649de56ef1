package game

// Termination classifies the end state reported by the rules provider.
type Termination int

const (
	// TerminationNone means the position is not terminal.
	TerminationNone Termination = iota
	// TerminationCheckmate means the side to move is mated.
	TerminationCheckmate
	// TerminationStalemate means the side to move has no legal move but
	// is not in check.
	TerminationStalemate
	// TerminationThreefoldRepetition means the position repeated enough
	// times to draw.
	TerminationThreefoldRepetition
	// TerminationFiftyMoveRule means the move-counter draw rule applies.
	TerminationFiftyMoveRule
	// TerminationInsufficientMaterial means neither side can mate.
	TerminationInsufficientMaterial
	// TerminationDraw covers any other drawn classification.
	TerminationDraw
)

// String returns the human-readable reason recorded for a termination.
func (t Termination) String() string {
	switch t {
	case TerminationCheckmate:
		return "checkmate"
	case TerminationStalemate:
		return "stalemate"
	case TerminationThreefoldRepetition:
		return "draw by threefold repetition"
	case TerminationFiftyMoveRule:
		return "draw by fifty-move rule"
	case TerminationInsufficientMaterial:
		return "draw by insufficient material"
	case TerminationDraw:
		return "draw"
	default:
		return "none"
	}
}

// Side identifies the player to move.
type Side int

const (
	White Side = iota
	Black
)

// Rules is the external move-legality collaborator: an in-progress match
// that reports legal moves and terminal classifications for the current
// position. The generator treats it as opaque; legality and terminal
// detection are entirely the provider's concern.
//
// LegalMoves must return moves in a stable order: the generator picks by
// index, so ordering is part of the reproducibility contract.
type Rules interface {
	LegalMoves() []string
	Outcome() Termination
	Push(san string) error
	SideToMove() Side
	FEN() string
}

// Factory creates a fresh match at the starting position. Each generation
// and each replay drives its own match instance.
type Factory func() Rules
