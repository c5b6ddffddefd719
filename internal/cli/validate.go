package cli

import (
	"github.com/spf13/cobra"

	"github.com/eurostyle/datagen/internal/emit"
	"github.com/eurostyle/datagen/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
}

// NewValidateCommand creates the validate command. It re-reads the
// emitted CSV files and recomputes every consistency check from
// scratch, independent of any engine or watermark state.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <output-dir>",
		Short: "Validate an emitted dataset",
		Long: `Validate the consistency of a previously emitted dataset.

Checks identifier uniqueness, referential integrity, journal balance,
and the reconciliation of financial aggregates across databases.

Example:
  eurostyle-datagen validate ./data
  eurostyle-datagen validate --config retail.yaml ./data --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to generation config (default: embedded demo config)")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command, dir string) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration rejected", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	batches, err := emit.ReadAll(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read dataset", err)
	}
	if len(batches) == 0 {
		return NewExitError(ExitCommandError, "no dataset found in "+dir)
	}
	formatter.VerboseLog("read %d tables from %s", len(batches), dir)

	report := validate.Validate(batches, cfg.Accounts, validate.Options{
		Tolerance: cfg.Tolerance(),
	})

	checks := checkResults(report)
	if opts.Format == "json" {
		if !report.Pass() {
			if err := formatter.Error("inconsistent", "dataset failed consistency validation", checks); err != nil {
				return err
			}
		} else if err := formatter.Success(struct {
			Pass   bool          `json:"pass"`
			Checks []CheckResult `json:"checks"`
		}{true, checks}); err != nil {
			return err
		}
	} else {
		if _, err := cmd.OutOrStdout().Write([]byte(renderChecks(checks))); err != nil {
			return err
		}
	}

	if !report.Pass() {
		return NewExitError(ExitInconsistent, "dataset failed consistency validation")
	}
	return nil
}
