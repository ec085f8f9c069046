package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gate/internal/app"
)

func (c *CLI) newCheckBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-branch",
		Short: "Check the current merge against the branch policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, _ := cmd.Flags().GetString("source")
			target, _ := cmd.Flags().GetString("target")
			decision, err := c.app.CheckBranch(cmd.Context(), app.CheckOptions{
				Options: commonOptions(cmd),
				Source:  source,
				Target:  target,
			})
			if err != nil {
				return err
			}
			if err := app.WriteDecision(cmd.OutOrStdout(), decision); err != nil {
				return err
			}
			return decision.Err
		},
	}
	cmd.Flags().String("source", "", "Source branch or ref (default: the CI ref variable)")
	cmd.Flags().String("target", "", "Target branch (default: the CI base ref variable)")
	return cmd
}
