// Package record defines the immutable game record persisted by the log
// store and the transcript formatting shared by generation and replay.
package record

// Statuses reported in a record.
const (
	StatusCompleted  = "completed"
	StatusUnfinished = "unfinished"
)

// Result codes.
const (
	ResultWhiteWins  = "1-0"
	ResultBlackWins  = "0-1"
	ResultDraw       = "1/2-1/2"
	ResultUnfinished = "*"
)

// Record is one generated game. Records are immutable once written: the
// store only appends them at the tail or evicts them from the head.
//
// INVARIANTS:
//   - PlyCount equals the number of moves recorded in Transcript.
//   - Seed, fed through the named RNG algorithm, reproduces Transcript
//     exactly (given the same rules-engine version).
type Record struct {
	Process       string `json:"process"`
	Message       string `json:"message"`
	Status        string `json:"status"`
	CompletedAt   string `json:"completed_at"`
	PlyCount      int    `json:"ply_count"`
	Result        string `json:"result"`
	Reason        string `json:"reason"`
	FinalPosition string `json:"final_position"`
	Transcript    string `json:"transcript"`
	RNGAlgorithm  string `json:"rng_algorithm"`
	RNGVersion    string `json:"rng_version,omitempty"`
	Seed          string `json:"seed"`
}
