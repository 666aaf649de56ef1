package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/gambit/internal/chessrules"
	"github.com/roach88/gambit/internal/game"
	"github.com/roach88/gambit/internal/record"
	"github.com/roach88/gambit/internal/replay"
)

// listCount is how many recent entries the bare replay command shows.
const listCount = 5

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Seed     string
	Index    int
	File     string
	MaxPlies int
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Reproduce stored games from their seeds",
		Long: `Reproduce a stored game from its recorded seed and compare the
reconstruction against what was persisted.

With no flags, the five most recent entries are listed. A transcript or
final-position mismatch is reported as a diagnostic, not an error: it
signals rules-engine drift, which is outside the reproducibility
guarantee.

Exit codes:
  0 - success
  1 - bad arguments or path-safety rejection
  2 - store read or parse failure
  3 - index lookup failure

Examples:
  gambit replay
  gambit replay --index 0
  gambit replay --seed abc123
  gambit replay --index 2 --file archive/games.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", "", "replay an explicit seed with no stored comparison")
	cmd.Flags().IntVar(&opts.Index, "index", -1, "replay the n-th most recent stored entry (0 = most recent)")
	cmd.Flags().StringVar(&opts.File, "file", "", "alternate store path (must stay inside the working directory)")
	cmd.Flags().IntVar(&opts.MaxPlies, "max-plies", 100, "ply cap when replaying an explicit seed")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	if opts.Seed != "" && opts.Index >= 0 {
		return NewExitError(ExitUsage, "--seed and --index are mutually exclusive")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return WrapExitError(ExitUsage, "resolve working directory", err)
	}
	v := replay.New(game.New(chessrules.New), baseDir)

	// An explicit seed needs no store at all.
	if opts.Seed != "" {
		g, err := v.ReplaySeed(ctx, opts.Seed, opts.MaxPlies)
		if err != nil {
			return WrapExitError(ExitUsage, "replay failed", err)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Replayed seed %s (%s): %s after %d plies (%s)\n",
			g.Seed, g.Algorithm, g.Result, len(g.Moves), g.Reason)
		fmt.Fprintln(w)
		fmt.Fprint(w, g.Transcript)
		return nil
	}

	path := opts.File
	if path == "" {
		path = "games.json"
	}
	recs, err := v.LoadStore(path)
	if err != nil {
		var pse *replay.PathSecurityError
		if errors.As(err, &pse) {
			return WrapExitError(ExitUsage, "path rejected", err)
		}
		return WrapExitError(ExitStoreRead, "failed to read store", err)
	}

	if opts.Index < 0 {
		return listRecent(cmd, recs)
	}

	rec, err := replay.ByIndex(recs, opts.Index)
	if err != nil {
		return WrapExitError(ExitIndex, "no such entry", err)
	}

	cmp, err := v.Replay(ctx, rec)
	if err != nil {
		return WrapExitError(ExitUsage, "replay failed", err)
	}
	printComparison(cmd, opts.Index, cmp)
	return nil
}

// listRecent prints the most recent stored entries, newest first.
func listRecent(cmd *cobra.Command, recs []record.Record) error {
	w := cmd.OutOrStdout()

	if len(recs) == 0 {
		fmt.Fprintln(w, "Store is empty.")
		return nil
	}

	n := listCount
	if len(recs) < n {
		n = len(recs)
	}
	fmt.Fprintf(w, "Stored games: %d (showing %d most recent)\n\n", len(recs), n)

	for i := 0; i < n; i++ {
		rec, _ := replay.ByIndex(recs, i)
		fmt.Fprintf(w, "  [%d] seed=%s plies=%d result=%s completed=%s\n",
			i, rec.Seed, rec.PlyCount, rec.Result, rec.CompletedAt)
	}
	return nil
}

func printComparison(cmd *cobra.Command, index int, cmp *replay.Comparison) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replayed [%d] seed=%s algorithm=%s plies=%d\n",
		index, cmp.Record.Seed, cmp.Record.RNGAlgorithm, cmp.Record.PlyCount)
	fmt.Fprintf(w, "  final position: %s\n", matchWord(cmp.FinalPositionOK))
	fmt.Fprintf(w, "  transcript:     %s\n", matchWord(cmp.TranscriptOK))

	if !cmp.Match() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Mismatch indicates rules-engine or RNG library drift; stored records")
		fmt.Fprintln(w, "are only guaranteed to replay under the versions that produced them.")
	}
}

func matchWord(ok bool) string {
	if ok {
		return "match"
	}
	return "MISMATCH"
}
