package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/harvest/internal/config"
	"github.com/roach88/harvest/internal/crop"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Force bool
}

// InitResult is the JSON payload of init.
type InitResult struct {
	Path  string `json:"path"`
	Crops int    `json:"crops"`
	Hash  string `json:"hash"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default crop config",
		Long: `Write the built-in crop catalog to the config path.

The default catalog replants wheat, carrots and potatoes at age 7 and
beetroots and nether wart at age 3. An existing file is left alone
unless --force is given.

Examples:
  harvest init
  harvest init --config ./config/harvest.json --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Config); err == nil && !opts.Force {
		msg := fmt.Sprintf("config already exists: %s (use --force to overwrite)", opts.Config)
		_ = formatter.Error(ErrCodeInvalidInput, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	c := crop.Default()
	if err := config.Save(opts.Config, c); err != nil {
		_ = formatter.Error(config.ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write config", err)
	}

	return formatter.Success(InitResult{
		Path:  opts.Config,
		Crops: c.Len(),
		Hash:  c.Hash(),
	}, fmt.Sprintf("✓ Wrote %d crops to %s", c.Len(), opts.Config))
}
