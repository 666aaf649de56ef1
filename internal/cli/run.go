package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gambit/internal/chessrules"
	"github.com/roach88/gambit/internal/config"
	"github.com/roach88/gambit/internal/game"
	"github.com/roach88/gambit/internal/sched"
	"github.com/roach88/gambit/internal/store"
	"github.com/roach88/gambit/internal/upload"
)

// NewRunCommand creates the daemon command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate and persist games on a schedule",
		Long: `Start the generation daemon: one game is generated immediately, then one
per interval. Every cycle loads the store, appends the new game, trims it
to the byte budget and atomically persists it. A separate periodic task
deduplicates the store and uploads it to the configured bin endpoint.

Configuration comes from the environment (STORE_PATH, MAX_STORE_BYTES,
GENERATE_INTERVAL_MS, MAX_PLIES, SEED, UPLOAD_ACCESS_KEY, ...). The
daemon refuses to start without UPLOAD_ACCESS_KEY. Set RUN_ONCE=true to
run a single generate+upload cycle and exit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(rootOpts, cmd)
		},
	}
	return cmd
}

func runDaemon(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitUsage, "failed to load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		// ConfigError is fatal before any work is done.
		return WrapExitError(ExitUsage, "refusing to start", err)
	}

	if err := setupLogging(cfg, opts.Verbose); err != nil {
		return WrapExitError(ExitUsage, "failed to set up logging", err)
	}

	gen := game.New(chessrules.New)
	st := store.New(store.Options{
		Path:        cfg.StorePath,
		MaxBytes:    cfg.MaxStoreBytes,
		MaxAttempts: cfg.MaxWriteAttempts,
	})
	uploader := upload.New(upload.Options{
		Endpoint:  cfg.UploadEndpoint,
		AccessKey: cfg.UploadAccessKey,
		StorePath: cfg.UploadStore(),
		MetaPath:  cfg.UploadMetaPath,
	})

	generate := newGenerateTask(cfg, gen, st)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunOnce {
		slog.Info("run-once mode")
		if err := generate(ctx); err != nil {
			return err
		}
		return uploader.Run(ctx)
	}

	genSched := sched.New("generate", cfg.GenerateInterval(), cfg.DrainTimeout(), generate)
	upSched := sched.New("upload", cfg.UploadInterval(), cfg.DrainTimeout(), uploader.Run)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := upSched.Run(ctx); err != nil {
			slog.Error("upload scheduler failed", "error", err)
		}
	}()

	err = genSched.Run(ctx)
	upSched.Shutdown()
	wg.Wait()
	return err
}

// newGenerateTask builds the serialized generate+persist cycle: the only
// writer of the store path.
func newGenerateTask(cfg config.Config, gen *game.Generator, st *store.Store) sched.Task {
	process := processTag()
	return func(ctx context.Context) error {
		st.Load()

		g, err := gen.Generate(ctx, game.Options{
			Seed:           cfg.Seed,
			MaxPlies:       cfg.MaxPlies,
			PreferExternal: cfg.PreferExternalRNG,
		})
		if err != nil {
			return fmt.Errorf("generate game: %w", err)
		}

		st.Append(g.Record(process, time.Now()))
		evicted, err := st.Trim()
		if err != nil {
			return fmt.Errorf("trim store: %w", err)
		}
		if err := st.Persist(ctx); err != nil {
			return fmt.Errorf("persist store: %w", err)
		}

		slog.Info("game persisted",
			"seed", g.Seed,
			"result", g.Result,
			"reason", g.Reason,
			"plies", len(g.Moves),
			"algorithm", g.Algorithm,
			"evicted", evicted,
			"records", st.Len(),
		)
		return nil
	}
}

func processTag() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("gambit/%d@%s", os.Getpid(), host)
}

// setupLogging configures the default slog logger: text to stderr, plus
// the configured log file when set.
func setupLogging(cfg config.Config, verbose bool) error {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}
