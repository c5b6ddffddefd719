package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/pipeline"
	"github.com/eurostyle/datagen/internal/state"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Config string
	Out    string
	State  string
	Seed   int64
	Days   int
	Year   int
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a fresh dataset",
		Long: `Generate a fresh multi-database dataset from scratch.

Base entities (customers, products, stores, employees) are generated
first, then the configured number of business days of orders, POS
transactions, sessions, and payroll. Every revenue event is posted to
the general ledger, and the run finishes with a full consistency
validation before the output and watermark are written.

Example:
  eurostyle-datagen generate --out ./data --state ./datagen.db
  eurostyle-datagen generate --config retail.yaml --out ./data --state ./datagen.db --seed 42 --days 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.Seed = time.Now().UnixNano()
			}
			return runGenerate(opts, cmd, false, false)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to generation config (default: embedded demo config)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output directory for CSV batches (required)")
	cmd.Flags().StringVar(&opts.State, "state", "", "path to SQLite watermark state (required)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (default: time-based)")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "business days to generate (default: config value)")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "calendar year to anchor dates (default: current year)")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}

// runGenerate executes a generation run. resume selects between fresh
// and incremental modes; both share this path. updates additionally
// emits base-entity update batches and is only meaningful on resume.
func runGenerate(opts *GenerateOptions, cmd *cobra.Command, resume, updates bool) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(formatter.GetErrWriter(), opts.RootOptions)

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration rejected", err)
	}

	st, err := state.Open(opts.State)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open state", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing state", "error", closeErr)
		}
	}()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	wm, err := st.LoadWatermark(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read watermark", err)
	}
	if !resume && wm != nil {
		return NewExitError(ExitCommandError,
			"state already holds a completed run; use 'resume' to extend it")
	}
	if resume && wm == nil {
		return NewExitError(ExitCommandError,
			"state holds no completed run; use 'generate' to start one")
	}

	ctrl, err := pipeline.New(pipeline.Options{
		Config:  cfg,
		Store:   st,
		OutDir:  opts.Out,
		Seed:    opts.Seed,
		Days:    opts.Days,
		Year:    opts.Year,
		Updates: updates,
		Logger:  logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid run options", err)
	}

	res, err := ctrl.Run(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "run aborted", err)
	}

	summary := summarize(res)
	inconsistent := res.Status == pipeline.StatusInconsistent
	if opts.Format == "json" {
		if inconsistent {
			if err := formatter.Error("inconsistent", "dataset failed consistency validation", summary); err != nil {
				return err
			}
		} else if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		if _, err := cmd.OutOrStdout().Write([]byte(renderSummary(summary))); err != nil {
			return err
		}
	}

	if inconsistent {
		return NewExitError(ExitInconsistent, "dataset failed consistency validation")
	}
	return nil
}

// loadConfig reads the config file, or the embedded demo config when no
// path was given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Demo()
	}
	return config.Load(path)
}

// newLogger builds the run logger honoring the verbose flag.
func newLogger(w io.Writer, opts *RootOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// signalContext derives a context cancelled on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
