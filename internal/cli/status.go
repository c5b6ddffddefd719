package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eurostyle/datagen/internal/model"
	"github.com/eurostyle/datagen/internal/state"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	State string
}

// NewStatusCommand creates the status command: watermark position and
// run history from the state database.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show watermark and run history",
		Long: `Show the stored watermark (identifier positions, cumulative revenue,
days generated) and the log of completed runs.

Example:
  eurostyle-datagen status --state ./datagen.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "path to SQLite watermark state (required)")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}

// statusPayload is the JSON shape of the status command.
type statusPayload struct {
	Days    int              `json:"days"`
	Revenue string           `json:"revenue"`
	Kinds   map[string]int64 `json:"kinds"`
	Runs    []runPayload     `json:"runs"`
}

type runPayload struct {
	ID         string `json:"id"`
	FinishedAt string `json:"finished_at"`
	Days       int    `json:"days"`
	Seed       int64  `json:"seed"`
	Status     string `json:"status"`
	Rejected   int    `json:"rejected"`
	Revenue    string `json:"revenue"`
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	st, err := state.Open(opts.State)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open state", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	wm, err := st.LoadWatermark(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read watermark", err)
	}
	if wm == nil {
		return NewExitError(ExitCommandError, "state holds no completed run")
	}
	runs, err := st.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run log", err)
	}

	payload := statusPayload{
		Days:    wm.Days,
		Revenue: wm.Revenue.StringFixed(2),
		Kinds:   make(map[string]int64, len(wm.Kinds)),
	}
	for kind, last := range wm.Kinds {
		payload.Kinds[string(kind)] = last
	}
	for _, r := range runs {
		payload.Runs = append(payload.Runs, runPayload{
			ID:         r.ID,
			FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339),
			Days:       r.Days,
			Seed:       r.Seed,
			Status:     r.Status,
			Rejected:   r.Rejected,
			Revenue:    r.Revenue.StringFixed(2),
		})
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(payload)
	}
	_, err = cmd.OutOrStdout().Write([]byte(renderStatus(payload)))
	return err
}

func renderStatus(p statusPayload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Watermark: %d business days, total revenue %s\n", p.Days, p.Revenue)
	b.WriteString("\nIdentifier positions:\n")
	for _, kind := range model.Kinds {
		if last, ok := p.Kinds[string(kind)]; ok {
			fmt.Fprintf(&b, "  %-10s %d\n", kind, last)
		}
	}

	b.WriteString("\nRuns (newest first):\n")
	for _, r := range p.Runs {
		fmt.Fprintf(&b, "  %s  %s  days=%d seed=%d rejected=%d revenue=%s  %s\n",
			r.FinishedAt, r.ID, r.Days, r.Seed, r.Rejected, r.Revenue, r.Status)
	}
	return b.String()
}
