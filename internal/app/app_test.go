package app_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gate/internal/adapters/detector"
	"go.trai.ch/gate/internal/adapters/telemetry"
	"go.trai.ch/gate/internal/app"
	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports/mocks"
	"go.trai.ch/gate/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

const projectRoot = "/work/project"

type fixture struct {
	loader   *mocks.MockConfigLoader
	executor *mocks.MockExecutor
	logger   *mocks.MockLogger
	ci       *mocks.MockCIContext
	env      *mocks.MockEnvironment
	events   *mocks.MockEventLoader
	refs     *mocks.MockRefSource
	store    *mocks.MockReportStore

	stdout *bytes.Buffer
	stderr *bytes.Buffer
	app    *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		loader:   mocks.NewMockConfigLoader(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		ci:       mocks.NewMockCIContext(ctrl),
		env:      mocks.NewMockEnvironment(ctrl),
		events:   mocks.NewMockEventLoader(ctrl),
		refs:     mocks.NewMockRefSource(ctrl),
		store:    mocks.NewMockReportStore(ctrl),
		stdout:   new(bytes.Buffer),
		stderr:   new(bytes.Buffer),
	}

	f.ci.EXPECT().Environment().Return(f.env).AnyTimes()
	f.ci.EXPECT().EventLoader(gomock.Any()).Return(f.events).AnyTimes()
	f.ci.EXPECT().RefSource(gomock.Any()).Return(f.refs).AnyTimes()

	tracer := telemetry.NewOTelTracer("gate-test")
	f.app = app.New(f.loader, f.executor, f.logger, f.ci, f.store, tracer, scheduler.NewScheduler(tracer)).
		WithOutput(f.stdout, f.stderr).
		WithTeaOptions(
			tea.WithInput(strings.NewReader("")),
			tea.WithOutput(io.Discard),
			tea.WithoutSignalHandler(),
			tea.WithoutRenderer(),
		)
	f.app.SetDetectMode(func() detector.OutputMode { return detector.ModeLinear })
	f.app.SetIDGenerator(func() string { return "run-1" })
	f.app.SetCIDetector(func() bool { return false })
	return f
}

func testPipeline() *domain.Pipeline {
	return &domain.Pipeline{
		Root:     projectRoot,
		Settings: domain.DefaultSettings(),
		Branches: domain.DefaultBranchSettings(),
		Policy: domain.MergePolicy{
			Rules:     map[string]string{"staging": "development", "master": "staging"},
			Unmatched: domain.PolicyPermit,
		},
		Targets: []domain.Target{
			{Name: "clean", Description: "Remove build output", RunsBefore: []string{"restore"}},
			{Name: "restore", Description: "Restore packages", Command: []string{"dotnet", "restore"}},
			{Name: "compile", DependsOn: []string{"restore"}, Command: []string{"dotnet", "build"}},
			{Name: "test", DependsOn: []string{"compile"}, Command: []string{"dotnet", "test"}},
			{Name: "enforce-staging", DependsOn: []string{"test"}, Gated: true},
		},
		Triggers: []domain.Trigger{
			{
				Name:     "enforce-development-to-staging",
				On:       domain.EventPullRequest,
				Branches: []string{"staging"},
				Targets:  []string{"enforce-staging"},
			},
		},
	}
}

// echoExecutor records executed targets and prints one line per target.
type echoExecutor struct {
	mu     sync.Mutex
	ran    []string
	failOn string
}

func (e *echoExecutor) execute(_ context.Context, t *domain.Target, stdout, _ io.Writer) error {
	e.mu.Lock()
	e.ran = append(e.ran, t.Name)
	e.mu.Unlock()

	_, _ = fmt.Fprintf(stdout, "running %s\n", strings.Join(t.Command, " "))
	if t.Name == e.failOn {
		return errors.New("exit status 1")
	}
	return nil
}

func (e *echoExecutor) targets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ran...)
}

func TestApp_Run_Success(t *testing.T) {
	f := newFixture(t)
	exec := &echoExecutor{}

	f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).Times(3)
	f.logger.EXPECT().Info("run finished", "succeeded", 3, "failed", 0, "skipped", 0)

	var saved *domain.Report
	f.store.EXPECT().Save(projectRoot, gomock.Any()).DoAndReturn(func(_ string, r *domain.Report) error {
		saved = r
		return nil
	})

	err := f.app.Run(t.Context(), []string{"test"}, app.RunOptions{OutputMode: "linear"})
	require.NoError(t, err)

	assert.Equal(t, []string{"restore", "compile", "test"}, exec.targets())
	assert.Contains(t, f.stdout.String(), "[compile] running dotnet build")
	assert.Contains(t, f.stderr.String(), "Planning 3 target(s)")

	require.NotNil(t, saved)
	assert.Equal(t, "run-1", saved.ID)
	assert.True(t, saved.Success)
	assert.Equal(t, []string{"test"}, saved.Requested)
	assert.Len(t, saved.Targets, 3)
	assert.Empty(t, saved.Source, "no gated target ran")
}

func TestApp_Run_FailureSkipsDependents(t *testing.T) {
	f := newFixture(t)
	exec := &echoExecutor{failOn: "restore"}

	f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute)
	f.logger.EXPECT().Info("run finished", "succeeded", 0, "failed", 1, "skipped", 2)

	var saved *domain.Report
	f.store.EXPECT().Save(projectRoot, gomock.Any()).DoAndReturn(func(_ string, r *domain.Report) error {
		saved = r
		return nil
	})

	err := f.app.Run(t.Context(), []string{"test"}, app.RunOptions{OutputMode: "ci"})
	require.ErrorIs(t, err, domain.ErrTargetFailed)
	assert.Contains(t, err.Error(), "restore")

	assert.Equal(t, []string{"restore"}, exec.targets())
	require.NotNil(t, saved)
	assert.False(t, saved.Success)
	assert.Equal(t, domain.StatusSkipped, saved.Targets[2].Status)
}

func TestApp_Run_ContinueOnError(t *testing.T) {
	f := newFixture(t)
	exec := &echoExecutor{failOn: "restore"}

	f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute)
	f.logger.EXPECT().Info("run finished", gomock.Any())
	f.store.EXPECT().Save(projectRoot, gomock.Any()).Return(nil)

	// clean is independent of restore and still runs; it has no command.
	err := f.app.Run(t.Context(), []string{"clean", "compile"}, app.RunOptions{
		OutputMode:      "linear",
		ContinueOnError: true,
		Parallelism:     2,
	})
	require.ErrorIs(t, err, domain.ErrTargetFailed)
	assert.Equal(t, []string{"restore"}, exec.targets())
}

func TestApp_Run_GatedTargetRejected(t *testing.T) {
	f := newFixture(t)
	exec := &echoExecutor{}

	f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).Times(3)
	f.refs.EXPECT().CurrentRef(gomock.Any()).Return("feature/login", nil)
	f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("master", true)
	f.logger.EXPECT().Warn("merge rejected by branch policy", "source", "feature/login", "target", "master")
	f.logger.EXPECT().Info("run finished", "succeeded", 3, "failed", 1, "skipped", 0)

	var saved *domain.Report
	f.store.EXPECT().Save(projectRoot, gomock.Any()).DoAndReturn(func(_ string, r *domain.Report) error {
		saved = r
		return nil
	})

	err := f.app.Run(t.Context(), []string{"enforce-staging"}, app.RunOptions{OutputMode: "linear"})
	require.ErrorIs(t, err, domain.ErrPolicyViolation)

	var violation *domain.PolicyViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "staging", violation.Required)

	require.NotNil(t, saved)
	assert.Equal(t, "feature/login", saved.Source)
	assert.Equal(t, "master", saved.Target)
}

func TestApp_Run_UnmatchedOverride(t *testing.T) {
	f := newFixture(t)
	exec := &echoExecutor{}

	f.loader.EXPECT().LoadFile("ci/gate.yaml").Return(testPipeline(), nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).Times(3)
	f.refs.EXPECT().CurrentRef(gomock.Any()).Return("hotfix", nil)
	f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("release", true)
	f.logger.EXPECT().Warn("merge rejected by branch policy", gomock.Any())
	f.logger.EXPECT().Info("run finished", gomock.Any())
	f.store.EXPECT().Save(projectRoot, gomock.Any()).Return(nil)

	err := f.app.Run(t.Context(), []string{"enforce-staging"}, app.RunOptions{
		Options:    app.Options{ConfigPath: "ci/gate.yaml", Unmatched: "deny"},
		OutputMode: "linear",
	})
	require.ErrorIs(t, err, domain.ErrPolicyViolation)
}

func TestApp_Run_ReportSaveFailureIsOnlyAWarning(t *testing.T) {
	f := newFixture(t)
	exec := &echoExecutor{}

	f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute)
	f.store.EXPECT().Save(projectRoot, gomock.Any()).Return(domain.ErrReportWriteFailed)
	f.logger.EXPECT().Warn("could not save run report", "error", domain.ErrReportWriteFailed.Error())
	f.logger.EXPECT().Info("run finished", gomock.Any())

	require.NoError(t, f.app.Run(t.Context(), []string{"restore"}, app.RunOptions{OutputMode: "linear"}))
}

func TestApp_Run_TUI(t *testing.T) {
	f := newFixture(t)
	exec := &echoExecutor{}
	f.app.SetDetectMode(func() detector.OutputMode { return detector.ModeTUI })

	f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).Times(2)
	f.logger.EXPECT().Info("run finished", gomock.Any())
	f.store.EXPECT().Save(projectRoot, gomock.Any()).Return(nil)

	require.NoError(t, f.app.Run(t.Context(), []string{"compile"}, app.RunOptions{}))
	assert.Equal(t, []string{"restore", "compile"}, exec.targets())
	assert.Empty(t, f.stdout.String(), "the TUI owns the terminal")
}

func TestApp_Run_Errors(t *testing.T) {
	t.Run("no targets and no default", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
		err := f.app.Run(t.Context(), nil, app.RunOptions{})
		require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
	})

	t.Run("invalid output mode", func(t *testing.T) {
		f := newFixture(t)
		err := f.app.Run(t.Context(), []string{"test"}, app.RunOptions{OutputMode: "fancy"})
		require.ErrorIs(t, err, domain.ErrInvalidOutputMode)
	})

	t.Run("config not found", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(".").Return(nil, domain.ErrConfigNotFound)
		err := f.app.Run(t.Context(), []string{"test"}, app.RunOptions{})
		require.ErrorIs(t, err, domain.ErrConfigNotFound)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
		err := f.app.Run(t.Context(), []string{"deploy"}, app.RunOptions{})
		require.ErrorIs(t, err, domain.ErrUnknownTarget)
	})

	t.Run("invalid unmatched override", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
		err := f.app.Run(t.Context(), []string{"test"}, app.RunOptions{Options: app.Options{Unmatched: "maybe"}})
		require.ErrorIs(t, err, domain.ErrInvalidPolicyDefault)
	})
}

func TestApp_Dispatch(t *testing.T) {
	t.Run("no trigger matches", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
		f.logger.EXPECT().Info("no trigger matched", "event", "push", "branch", "staging")

		require.NoError(t, f.app.Dispatch(t.Context(), "push", "staging", app.RunOptions{}))
	})

	t.Run("runs triggered targets", func(t *testing.T) {
		f := newFixture(t)
		exec := &echoExecutor{}

		f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
		f.logger.EXPECT().Info("dispatching triggered targets", gomock.Any())
		f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).Times(3)
		f.refs.EXPECT().CurrentRef(gomock.Any()).Return("development", nil)
		f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("staging", true)
		f.logger.EXPECT().Info("merge allowed by branch policy", gomock.Any())
		f.logger.EXPECT().Info("run finished", "succeeded", 4, "failed", 0, "skipped", 0)
		f.store.EXPECT().Save(projectRoot, gomock.Any()).Return(nil)

		require.NoError(t, f.app.Dispatch(t.Context(), domain.EventPullRequest, "staging", app.RunOptions{}))
		assert.Equal(t, []string{"restore", "compile", "test"}, exec.targets())
	})
}

func TestApp_Plan(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testPipeline(), nil).Times(2)

	plan, pipeline, err := f.app.Plan(t.Context(), []string{"enforce-staging", "clean"}, app.Options{})
	require.NoError(t, err)
	assert.Equal(t, projectRoot, pipeline.Root)
	assert.Equal(t, []string{"clean", "restore", "compile", "test", "enforce-staging"}, plan.Order())

	_, _, err = f.app.Plan(t.Context(), nil, app.Options{})
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
}

func TestApp_CheckBranch(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
	f.refs.EXPECT().CurrentRef(gomock.Any()).Return("refs/pull/12/merge", nil)
	f.events.EXPECT().Load(gomock.Any()).Return([]byte(`{"pull_request":{"head":{"ref":"development"}}}`), nil)
	f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("staging", true)

	decision, err := f.app.CheckBranch(t.Context(), app.CheckOptions{})
	require.NoError(t, err)
	assert.True(t, decision.Allowed())
	assert.Equal(t, "development", decision.Source.Name)
	assert.True(t, decision.Source.FromEvent)
}

func TestApp_CheckBranch_ExplicitBranches(t *testing.T) {
	tests := []struct {
		name    string
		opts    app.CheckOptions
		setup   func(f *fixture)
		allowed bool
	}{
		{
			name: "both given",
			opts: app.CheckOptions{Source: "refs/heads/development", Target: "staging"},
			setup: func(*fixture) {
				// Neither the CI ref nor the base ref variable is consulted.
			},
			allowed: true,
		},
		{
			name: "target given",
			opts: app.CheckOptions{Target: "master"},
			setup: func(f *fixture) {
				f.refs.EXPECT().CurrentRef(gomock.Any()).Return("development", nil)
			},
			allowed: false,
		},
		{
			name: "source given",
			opts: app.CheckOptions{Source: "staging"},
			setup: func(f *fixture) {
				f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("master", true)
			},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.loader.EXPECT().Load(".").Return(testPipeline(), nil)
			tt.setup(f)

			decision, err := f.app.CheckBranch(t.Context(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed())
		})
	}
}

func TestApp_ReportAndClean(t *testing.T) {
	f := newFixture(t)
	report := &domain.Report{ID: "run-1"}

	f.loader.EXPECT().Load(".").Return(testPipeline(), nil).Times(2)
	f.store.EXPECT().Latest(projectRoot).Return(report, nil)
	f.store.EXPECT().Clean(projectRoot).Return(nil)
	f.logger.EXPECT().Info("removing /work/project/.gate...")
	f.logger.EXPECT().Info("removed /work/project/.gate")

	got, err := f.app.Report(t.Context(), app.Options{})
	require.NoError(t, err)
	assert.Same(t, report, got)

	require.NoError(t, f.app.Clean(t.Context(), app.Options{}))
}

func TestApp_Run_DefaultTarget(t *testing.T) {
	f := newFixture(t)
	exec := &echoExecutor{}

	pipeline := testPipeline()
	pipeline.Settings.Default = "compile"

	f.loader.EXPECT().Load(".").Return(pipeline, nil)
	f.logger.EXPECT().Info("running default target", "target", "compile")
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(exec.execute).Times(2)
	f.logger.EXPECT().Info("run finished", "succeeded", 2, "failed", 0, "skipped", 0)
	f.store.EXPECT().Save(projectRoot, gomock.Any()).Return(nil)

	require.NoError(t, f.app.Run(t.Context(), nil, app.RunOptions{}))
	assert.Equal(t, []string{"restore", "compile"}, exec.targets())
}

func TestApp_Run_Configuration(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		configured string
		ci         bool
		want       string
	}{
		{name: "local default", want: domain.ConfigurationDebug},
		{name: "ci default", ci: true, want: domain.ConfigurationRelease},
		{name: "settings", configured: "Staging", ci: true, want: "Staging"},
		{name: "flag", flag: "Profile", configured: "Staging", want: "Profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.app.SetCIDetector(func() bool { return tt.ci })

			pipeline := testPipeline()
			pipeline.Settings.Configuration = tt.configured

			var (
				mu  sync.Mutex
				got []string
			)
			f.loader.EXPECT().Load(".").Return(pipeline, nil)
			f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, target *domain.Target, _, _ io.Writer) error {
					mu.Lock()
					defer mu.Unlock()
					got = append(got, target.Environment[domain.ConfigurationEnvVar])
					return nil
				}).Times(2)
			f.logger.EXPECT().Info("run finished", gomock.Any())

			var report *domain.Report
			f.store.EXPECT().Save(projectRoot, gomock.Any()).DoAndReturn(func(_ string, r *domain.Report) error {
				report = r
				return nil
			})

			require.NoError(t, f.app.Run(t.Context(), []string{"compile"}, app.RunOptions{Configuration: tt.flag}))
			assert.Equal(t, []string{tt.want, tt.want}, got)
			require.NotNil(t, report)
			assert.Equal(t, tt.want, report.Configuration)
		})
	}
}
