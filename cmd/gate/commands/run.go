package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.trai.ch/gate/internal/app"
	"go.trai.ch/gate/internal/core/domain"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run targets and everything they depend on",
		Long:  "Run targets and everything they depend on. Without targets, settings.default is run.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.app.Run(cmd.Context(), args, runOptions(cmd))
			if len(args) == 0 && errors.Is(err, domain.ErrNoTargetsSpecified) {
				_ = cmd.Help()
			}
			return err
		},
	}
	addRunFlags(cmd)
	return cmd
}

func (c *CLI) newDispatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run the targets of every trigger matching a CI event and branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			event, _ := cmd.Flags().GetString("event")
			branch, _ := cmd.Flags().GetString("branch")
			return c.app.Dispatch(cmd.Context(), event, branch, runOptions(cmd))
		},
	}
	addRunFlags(cmd)
	cmd.Flags().String("event", "", "CI event: push, pull_request or workflow_dispatch")
	cmd.Flags().String("branch", "", "Branch the event applies to")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("branch")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("continue-on-error", false, "Keep running targets unrelated to a failure")
	cmd.Flags().IntP("parallel", "j", 0, "Maximum number of targets running at once (default: settings.parallelism)")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, linear or ci")
	cmd.Flags().Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
	cmd.Flags().String("configuration", "",
		"Build configuration exported as GATE_CONFIGURATION (default: settings.configuration, Release in CI, else Debug)")
}

func runOptions(cmd *cobra.Command) app.RunOptions {
	continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
	parallel, _ := cmd.Flags().GetInt("parallel")
	outputMode, _ := cmd.Flags().GetString("output-mode")
	ci, _ := cmd.Flags().GetBool("ci")
	configuration, _ := cmd.Flags().GetString("configuration")

	// If --ci is set, override output-mode to "linear"
	if ci {
		outputMode = "linear"
	}

	return app.RunOptions{
		Options:         commonOptions(cmd),
		OutputMode:      outputMode,
		Parallelism:     parallel,
		ContinueOnError: continueOnError,
		Configuration:   configuration,
	}
}
