// Package commands implements the CLI commands for gate.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/gate/internal/app"
	"go.trai.ch/gate/internal/build"
	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/engine/policy"
)

// CLI represents the command line interface for gate.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, targetNames []string, opts app.RunOptions) error
	Dispatch(ctx context.Context, event, branch string, opts app.RunOptions) error
	Plan(ctx context.Context, targetNames []string, opts app.Options) (*domain.Plan, *domain.Pipeline, error)
	Targets(ctx context.Context, opts app.Options) (*domain.Pipeline, error)
	CheckBranch(ctx context.Context, opts app.CheckOptions) (policy.Decision, error)
	Report(ctx context.Context, opts app.Options) (*domain.Report, error)
	Clean(ctx context.Context, opts app.Options) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "gate",
		Short:         "Run CI pipeline targets and enforce branch merge policies",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to gate.yaml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("unmatched-branch", "", "Override policy.unmatched: permit or deny")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newDispatchCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newTargetsCmd())
	rootCmd.AddCommand(c.newCheckBranchCmd())
	rootCmd.AddCommand(c.newReportCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func commonOptions(cmd *cobra.Command) app.Options {
	configPath, _ := cmd.Flags().GetString("config")
	unmatched, _ := cmd.Flags().GetString("unmatched-branch")
	return app.Options{
		ConfigPath: configPath,
		Unmatched:  unmatched,
	}
}
