package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/comalice/storex"
	"github.com/comalice/storex/internal/scenario"
	"github.com/comalice/storex/loop"
)

// ErrExpectationFailed is returned by run when the final state does not match.
var ErrExpectationFailed = errors.New("scenario expectations failed")

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its commit trace",
		Long: `Run a scenario and print its commit trace.

Every commit observed by the store's subscriber is printed in order,
followed by the final state and the result of the expect block.
Deferred effects run on a host loop that is drained after the last step.

Example:
  storex run examples/scenarios/counter.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	cfg, logger, err := loadConfig(opts, cmd)
	if err != nil {
		return err
	}

	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	res, err := scenario.Run(cmd.Context(), sc, scenario.RunConfig{
		StoreOptions: []storex.Option{storex.WithMaxDepth(cfg.MaxDepth)},
		Loop: loop.Config{
			TickRate:        cfg.TickRate,
			MaxTasksPerTick: cfg.MaxTasksPerTick,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if err := scenario.Render(cmd.OutOrStdout(), res, opts.Format); err != nil {
		return err
	}
	if !res.Passed() {
		return ErrExpectationFailed
	}
	return nil
}
