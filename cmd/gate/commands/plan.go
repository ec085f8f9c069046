package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gate/internal/app"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [targets...]",
		Short: "Print the execution order without running anything",
		Long:  "Print the execution order without running anything. Without targets, settings.default is planned.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, pipeline, err := c.app.Plan(cmd.Context(), args, commonOptions(cmd))
			if err != nil {
				return err
			}
			return app.WritePlan(cmd.OutOrStdout(), plan, pipeline)
		},
	}
}

func (c *CLI) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the declared targets and triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipeline, err := c.app.Targets(cmd.Context(), commonOptions(cmd))
			if err != nil {
				return err
			}
			return app.WriteTargets(cmd.OutOrStdout(), pipeline)
		},
	}
}
