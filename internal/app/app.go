// Package app implements the application layer for gate.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.trai.ch/gate/internal/adapters/detector"
	"go.trai.ch/gate/internal/adapters/github"
	"go.trai.ch/gate/internal/adapters/linear"
	"go.trai.ch/gate/internal/adapters/telemetry"
	"go.trai.ch/gate/internal/adapters/tui"
	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports"
	"go.trai.ch/gate/internal/engine/policy"
	"go.trai.ch/gate/internal/engine/scheduler"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	logger       ports.Logger
	ci           ports.CIContext
	store        ports.ReportStore
	tracer       *telemetry.OTelTracer
	scheduler    *scheduler.Scheduler

	stdout     io.Writer
	stderr     io.Writer
	teaOptions []tea.ProgramOption
	detectMode func() detector.OutputMode
	detectCI   func() bool
	now        func() time.Time
	newID      func() string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	log ports.Logger,
	ci ports.CIContext,
	store ports.ReportStore,
	tracer *telemetry.OTelTracer,
	sched *scheduler.Scheduler,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		logger:       log,
		ci:           ci,
		store:        store,
		tracer:       tracer,
		scheduler:    sched,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		detectMode:   detector.DetectEnvironment,
		detectCI:     detector.IsCI,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput redirects renderer and report output.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// Options are shared by every command that loads the pipeline.
type Options struct {
	// ConfigPath selects a gate.yaml explicitly instead of walking up from the working directory.
	ConfigPath string
	// Unmatched overrides policy.unmatched when set.
	Unmatched string
}

// RunOptions configuration for the Run and Dispatch methods.
type RunOptions struct {
	Options
	OutputMode string
	// Parallelism overrides settings.parallelism when positive.
	Parallelism int
	// ContinueOnError overrides settings.failFast.
	ContinueOnError bool
	// Configuration overrides settings.configuration and the CI based default.
	Configuration string
}

// CheckOptions configures CheckBranch.
type CheckOptions struct {
	Options
	// Source replaces the ref read from the CI environment when set.
	Source string
	// Target replaces the base ref read from the CI environment when set.
	Target string
}

// Run executes the requested targets and their dependencies.
// Without targets the pipeline's settings.default is run.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	mode, err := a.resolveMode(opts.OutputMode)
	if err != nil {
		return err
	}

	pipeline, err := a.loadPipeline(opts.Options)
	if err != nil {
		return err
	}

	if len(targetNames) == 0 {
		if pipeline.Settings.Default == "" {
			return domain.ErrNoTargetsSpecified
		}
		targetNames = []string{pipeline.Settings.Default}
		a.logger.Info("running default target", "target", pipeline.Settings.Default)
	}

	return a.execute(ctx, pipeline, targetNames, mode, opts)
}

// Dispatch runs the targets of every trigger matching event and branch.
// No matching trigger is not an error.
func (a *App) Dispatch(ctx context.Context, event, branch string, opts RunOptions) error {
	mode, err := a.resolveMode(opts.OutputMode)
	if err != nil {
		return err
	}

	pipeline, err := a.loadPipeline(opts.Options)
	if err != nil {
		return err
	}

	targets := pipeline.MatchTriggers(event, branch)
	if len(targets) == 0 {
		a.logger.Info("no trigger matched", "event", event, "branch", branch)
		return nil
	}
	a.logger.Info("dispatching triggered targets", "event", event, "branch", branch, "targets", targets)

	return a.execute(ctx, pipeline, targets, mode, opts)
}

// Plan resolves the execution order without running anything.
// Without targets the pipeline's settings.default is planned.
func (a *App) Plan(_ context.Context, targetNames []string, opts Options) (*domain.Plan, *domain.Pipeline, error) {
	pipeline, err := a.loadPipeline(opts)
	if err != nil {
		return nil, nil, err
	}

	if len(targetNames) == 0 {
		if pipeline.Settings.Default == "" {
			return nil, nil, domain.ErrNoTargetsSpecified
		}
		targetNames = []string{pipeline.Settings.Default}
	}

	registry, err := pipeline.NewRegistry(nil)
	if err != nil {
		return nil, nil, err
	}

	plan, err := registry.Resolve(targetNames...)
	if err != nil {
		return nil, nil, err
	}
	return plan, pipeline, nil
}

// Targets returns the declared pipeline.
func (a *App) Targets(_ context.Context, opts Options) (*domain.Pipeline, error) {
	return a.loadPipeline(opts)
}

// CheckBranch evaluates the merge policy without running targets. Branches
// come from the CI context unless given in opts.
func (a *App) CheckBranch(ctx context.Context, opts CheckOptions) (policy.Decision, error) {
	pipeline, err := a.loadPipeline(opts.Options)
	if err != nil {
		return policy.Decision{}, err
	}
	return a.newEvaluatorFor(pipeline, opts.Source, opts.Target).Evaluate(ctx)
}

// Report returns the latest run report of the project.
func (a *App) Report(_ context.Context, opts Options) (*domain.Report, error) {
	root, err := a.projectRoot(opts)
	if err != nil {
		return nil, err
	}
	return a.store.Latest(root)
}

// Clean removes the gate metadata directory of the project.
func (a *App) Clean(_ context.Context, opts Options) error {
	root, err := a.projectRoot(opts)
	if err != nil {
		return err
	}

	dir := filepath.Join(root, domain.DefaultGatePath())
	a.logger.Info(fmt.Sprintf("removing %s...", dir))
	if err := a.store.Clean(root); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("removed %s", dir))
	return nil
}

// execute binds actions and gates, resolves the plan and runs it next to the renderer.
//
//nolint:cyclop // orchestration function
func (a *App) execute(
	ctx context.Context,
	pipeline *domain.Pipeline,
	targetNames []string,
	mode detector.OutputMode,
	opts RunOptions,
) error {
	configuration := domain.ResolveConfiguration(opts.Configuration, pipeline.Settings.Configuration, a.detectCI())
	evaluator := a.newEvaluator(pipeline)
	registry, err := pipeline.NewRegistry(func(t domain.Target) domain.Target {
		if len(t.Command) > 0 {
			t = t.WithEnv(domain.ConfigurationEnvVar, configuration)
			t.Action = a.shellAction(t)
		}
		if t.Gated {
			t.Gate = evaluator.Gate
		}
		return t
	})
	if err != nil {
		return err
	}

	plan, err := registry.Resolve(targetNames...)
	if err != nil {
		return err
	}

	schedOpts := scheduler.Options{
		Parallelism:     pipeline.Settings.Parallelism,
		ContinueOnError: opts.ContinueOnError || !pipeline.Settings.FailFast,
	}
	if opts.Parallelism > 0 {
		schedOpts.Parallelism = opts.Parallelism
	}

	renderer := a.newRenderer(mode)
	a.tracer.WithRenderer(renderer)
	defer func() {
		_ = a.tracer.Shutdown(context.WithoutCancel(ctx))
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	startedAt := a.now()
	var result *domain.Result

	g := new(errgroup.Group)

	// Renderer Routine
	g.Go(func() error {
		if err := renderer.Start(runCtx); err != nil {
			return err
		}
		err := renderer.Wait()
		// Leaving the TUI aborts the run; the scheduler skips what has not started.
		if mode == detector.ModeTUI {
			cancel()
		}
		return err
	})

	// Scheduler Routine
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("scheduler panic: %v", r)
			}
			_ = renderer.Stop()
		}()

		result, err = a.scheduler.Execute(runCtx, registry, plan, schedOpts)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.saveReport(pipeline.Root, result, evaluator, configuration, startedAt)
	a.logger.Info("run finished",
		"succeeded", len(result.Outcomes)-len(result.Failed())-len(result.Skipped()),
		"failed", len(result.Failed()),
		"skipped", len(result.Skipped()),
	)
	return result.Err()
}

func (a *App) saveReport(
	root string,
	result *domain.Result,
	evaluator *policy.Evaluator,
	configuration string,
	startedAt time.Time,
) {
	report := domain.NewReport(a.newID(), result, startedAt, a.now())
	report.Configuration = configuration
	if decision, ok := evaluator.LastDecision(); ok {
		report.Source = decision.Source.Name
		report.Target = decision.Target
	}
	if err := a.store.Save(root, report); err != nil {
		a.logger.Warn("could not save run report", "error", err.Error())
	}
}

func (a *App) shellAction(t domain.Target) domain.Action {
	return func(ctx context.Context, out io.Writer) error {
		return a.executor.Execute(ctx, &t, out, out)
	}
}

func (a *App) newEvaluator(pipeline *domain.Pipeline) *policy.Evaluator {
	return a.newEvaluatorFor(pipeline, "", "")
}

// newEvaluatorFor reads branches from the CI context, replacing the source
// ref and the base ref with the given names when they are set.
func (a *App) newEvaluatorFor(pipeline *domain.Pipeline, source, target string) *policy.Evaluator {
	settings := pipeline.Branches.WithDefaults()

	env := a.ci.Environment()
	if target != "" {
		env = github.MapEnv{settings.BaseRefVar: target}
	}
	refs := a.ci.RefSource(pipeline.Branches)
	if source != "" {
		refs = github.NewActionsWith(github.MapEnv{settings.RefVar: source}.Lookup, nil).RefSource(settings)
	}

	return policy.NewEvaluator(
		pipeline.Branches,
		pipeline.Policy,
		env,
		a.ci.EventLoader(pipeline.Branches),
		refs,
		a.logger,
	)
}

func (a *App) newRenderer(mode detector.OutputMode) ports.Renderer {
	if mode == detector.ModeTUI {
		model := tui.NewModel(a.stderr)
		teaOpts := append([]tea.ProgramOption{tea.WithOutput(a.stderr)}, a.teaOptions...)
		return tui.NewRenderer(&model, teaOpts...)
	}
	return linear.NewRenderer(a.stdout, a.stderr)
}

func (a *App) resolveMode(flag string) (detector.OutputMode, error) {
	mode, err := detector.ParseMode(flag)
	if err != nil {
		return mode, err
	}
	return detector.ResolveMode(a.detectMode(), flag), nil
}

func (a *App) loadPipeline(opts Options) (*domain.Pipeline, error) {
	var (
		pipeline *domain.Pipeline
		err      error
	)
	if opts.ConfigPath != "" {
		pipeline, err = a.configLoader.LoadFile(opts.ConfigPath)
	} else {
		pipeline, err = a.configLoader.Load(".")
	}
	if err != nil {
		return nil, err
	}

	if opts.Unmatched != "" {
		unmatched, err := domain.ParsePolicyDefault(opts.Unmatched)
		if err != nil {
			return nil, err
		}
		overridden := *pipeline
		overridden.Policy.Unmatched = unmatched
		return &overridden, nil
	}
	return pipeline, nil
}

// projectRoot is the pipeline root, which may differ from the directory holding gate.yaml.
func (a *App) projectRoot(opts Options) (string, error) {
	pipeline, err := a.loadPipeline(opts)
	if err != nil {
		return "", err
	}
	return pipeline.Root, nil
}
