package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gate/internal/adapters/config"
	"go.trai.ch/gate/internal/adapters/github"
	"go.trai.ch/gate/internal/adapters/reports"
	"go.trai.ch/gate/internal/adapters/shell"
	"go.trai.ch/gate/internal/adapters/telemetry"
	"go.trai.ch/gate/internal/app"
	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports/mocks"
	"go.trai.ch/gate/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

func providerFor(a *app.App, logger *mocks.MockLogger) ComponentProvider {
	return func(_ context.Context) (*app.Components, error) {
		return app.NewComponents(a, logger), nil
	}
}

// newApp builds an App on the real adapters with a mocked logger.
func newApp(t *testing.T, logger *mocks.MockLogger, env map[string]string, stdout, stderr io.Writer) *app.App {
	t.Helper()
	tracer := telemetry.NewOTelTracer("gate-test")
	ci := github.NewActionsWith(github.MapEnv(env).Lookup, nil)
	return app.New(
		config.NewLoader(logger),
		shell.NewExecutor(),
		logger,
		ci,
		reports.NewStore(),
		tracer,
		scheduler.NewScheduler(tracer),
	).WithOutput(stdout, stderr).WithTeaOptions(
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Version(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	stdout := new(bytes.Buffer)

	a := newApp(t, logger, nil, stdout, io.Discard)
	exitCode := run(context.Background(), []string{"version"}, stdout, io.Discard, providerFor(a, logger))

	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "gate version")
}

func TestRun_ProviderError(t *testing.T) {
	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, io.Discard, stderr,
		func(_ context.Context) (*app.Components, error) {
			return nil, errors.New("wiring failed")
		})

	assert.Equal(t, 1, exitCode)
	assert.Equal(t, "Error: wiring failed\n", stderr.String())
}

func TestRun_Pipeline(t *testing.T) {
	configPath := writeConfig(t, `version: "1"
targets:
  hello:
    cmd: ["sh", "-c", "echo hello"]
  broken:
    dependsOn: [hello]
    cmd: ["sh", "-c", "exit 3"]
`)

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Info("run finished", gomock.Any())
		stdout := new(bytes.Buffer)

		a := newApp(t, logger, nil, stdout, io.Discard)
		exitCode := run(context.Background(), []string{"run", "hello", "-c", configPath, "--ci"},
			stdout, io.Discard, providerFor(a, logger))

		assert.Equal(t, 0, exitCode)
		assert.Contains(t, stdout.String(), "[hello] hello")
		assert.FileExists(t, filepath.Join(filepath.Dir(configPath), ".gate", "reports", "latest.json"))
	})

	t.Run("failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Info("run finished", gomock.Any())

		var logged error
		logger.EXPECT().Error(gomock.Any()).Do(func(err error) { logged = err })

		a := newApp(t, logger, nil, io.Discard, io.Discard)
		exitCode := run(context.Background(), []string{"run", "broken", "-c", configPath, "--ci"},
			io.Discard, io.Discard, providerFor(a, logger))

		assert.Equal(t, 1, exitCode)
		require.ErrorIs(t, logged, domain.ErrTargetFailed)
		require.ErrorIs(t, logged, domain.ErrCommandFailed)
	})
}

func TestRun_CheckBranch(t *testing.T) {
	configPath := writeConfig(t, `version: "1"
policy:
  unmatched: deny
  rules:
    staging: development
targets:
  noop: {}
`)

	tests := []struct {
		name     string
		env      map[string]string
		exitCode int
	}{
		{
			name:     "allowed",
			env:      map[string]string{"GITHUB_REF": "development", "GITHUB_BASE_REF": "staging"},
			exitCode: 0,
		},
		{
			name:     "wrong source",
			env:      map[string]string{"GITHUB_REF": "feature/x", "GITHUB_BASE_REF": "staging"},
			exitCode: 1,
		},
		{
			name:     "unmatched target denied",
			env:      map[string]string{"GITHUB_REF": "development", "GITHUB_BASE_REF": "release"},
			exitCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			logger := mocks.NewMockLogger(ctrl)
			logger.EXPECT().Error(gomock.Any()).Times(tt.exitCode)

			a := newApp(t, logger, tt.env, io.Discard, io.Discard)
			exitCode := run(context.Background(), []string{"check-branch", "-c", configPath},
				io.Discard, io.Discard, providerFor(a, logger))
			assert.Equal(t, tt.exitCode, exitCode)
		})
	}
}
