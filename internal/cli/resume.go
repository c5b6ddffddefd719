package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// NewResumeCommand creates the resume command. It shares the generate
// run path but requires an existing watermark and may emit update
// batches for base entities.
func NewResumeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}
	var updates bool

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Extend an existing dataset",
		Long: `Extend a previously generated dataset with additional business days.

Identifier sequences, account running totals, and cumulative revenue
continue from the stored watermark. New rows are appended to the
existing CSV files; rows from earlier runs are never rewritten.

Example:
  eurostyle-datagen resume --out ./data --state ./datagen.db --days 5
  eurostyle-datagen resume --out ./data --state ./datagen.db --updates`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.Seed = time.Now().UnixNano()
			}
			return runGenerate(opts, cmd, true, updates)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to generation config (default: embedded demo config)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output directory for CSV batches (required)")
	cmd.Flags().StringVar(&opts.State, "state", "", "path to SQLite watermark state (required)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (default: time-based)")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "business days to generate (default: config value)")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "calendar year to anchor dates (default: current year)")
	cmd.Flags().BoolVar(&updates, "updates", false, "also emit update batches for existing base entities")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}
