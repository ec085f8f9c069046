package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/gate/internal/app"
)

func (c *CLI) newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the report of the latest run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.Report(cmd.Context(), commonOptions(cmd))
			if err != nil {
				return err
			}
			return app.WriteReport(cmd.OutOrStdout(), report)
		},
	}
}

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove run reports and other gate metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Clean(cmd.Context(), commonOptions(cmd))
		},
	}
}
