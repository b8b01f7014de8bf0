package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/storex/internal/scenario"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <scenario.yaml>",
		Short:         "Check a scenario file without running it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				data, err := json.Marshal(map[string]any{
					"name":    sc.Name,
					"actions": len(sc.Actions),
					"steps":   len(sc.Steps),
					"valid":   true,
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "%s\n", data)
				return err
			}
			_, err = fmt.Fprintf(out, "ok: %s (%d actions, %d steps)\n", sc.Name, len(sc.Actions), len(sc.Steps))
			return err
		},
	}
}
