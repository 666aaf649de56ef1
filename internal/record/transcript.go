package record

import (
	"fmt"
	"strings"
)

// FormatMoveText renders a move list as numbered pairs followed by the
// result token: every even 0-based index opens a new "N. " pair.
func FormatMoveText(moves []string, result string) string {
	var b strings.Builder
	for i, mv := range moves {
		if i%2 == 0 {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d. ", i/2+1)
		} else {
			b.WriteByte(' ')
		}
		b.WriteString(mv)
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(result)
	return b.String()
}

// BuildTranscript renders the full transcript: tag-pair headers, a blank
// line, then the numbered move text with the result token.
//
// The headers are a pure function of the game so that replaying a seed
// reproduces the transcript byte for byte; the completion time lives in
// the record's completed_at field, never in the transcript.
func BuildTranscript(result string, moves []string) string {
	var b strings.Builder
	b.WriteString("[Event \"Random self-play\"]\n")
	b.WriteString("[Site \"gambit\"]\n")
	b.WriteString("[Date \"????.??.??\"]\n")
	b.WriteString("[Round \"-\"]\n")
	b.WriteString("[White \"Random\"]\n")
	b.WriteString("[Black \"Random\"]\n")
	fmt.Fprintf(&b, "[Result %q]\n", result)
	b.WriteByte('\n')
	b.WriteString(FormatMoveText(moves, result))
	b.WriteByte('\n')
	return b.String()
}
