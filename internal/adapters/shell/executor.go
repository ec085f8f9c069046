// Package shell runs target commands inside a pseudo-terminal.
package shell

import (
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports"
)

// allowListedEnvVars are the host variables a command inherits. Everything
// else must be declared in the target's environment.
var allowListedEnvVars = map[string]struct{}{
	"HOME":   {},
	"TERM":   {},
	"USER":   {},
	"PATH":   {},
	"TMPDIR": {},
	"LANG":   {},
}

// envRef matches ${NAME} references in command arguments.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	// environ returns the host environment.
	environ func() []string
}

var _ ports.Executor = (*Executor)(nil)

// NewExecutor creates a new Executor reading the process environment.
func NewExecutor() *Executor {
	return &Executor{environ: os.Environ}
}

// Execute runs the target's command and waits for it to complete. The PTY merges
// stderr into stdout, so all output is written to stdout. A target without a
// command succeeds immediately.
func (e *Executor) Execute(ctx context.Context, target *domain.Target, stdout, _ io.Writer) error {
	if len(target.Command) == 0 {
		return nil
	}

	cmd, err := e.command(ctx, target)
	if err != nil {
		return err
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return domain.Cause(domain.ErrCommandStartFailed, err, "target", target.Name, "command", target.Command[0])
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading a PTY whose child exited ends with EIO on Linux.
		_, _ = io.Copy(stdout, ptmx)
	}()

	waitErr := cmd.Wait()
	<-ioDone
	_ = ptmx.Close()

	if waitErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return domain.Cause(domain.ErrCommandFailed, waitErr, "target", target.Name, "exit_code", exitCode)
	}
	return nil
}

func (e *Executor) command(ctx context.Context, target *domain.Target) (*exec.Cmd, error) {
	env := resolveEnvironment(e.environ(), target.Environment)

	name := target.Command[0]
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		lp, err := lookPath(name, env)
		if err != nil {
			return nil, domain.Cause(domain.ErrCommandStartFailed, err, "target", target.Name, "command", name)
		}
		executable = lp
	}

	args := expandArgs(target.Command[1:], env)
	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // commands come from gate.yaml
	cmd.Args[0] = name
	cmd.Dir = target.WorkingDir
	cmd.Env = env
	return cmd, nil
}

// resolveEnvironment keeps the allow-listed host variables and applies the
// target's variables on top. The result is sorted for reproducibility.
func resolveEnvironment(sysEnv []string, targetEnv map[string]string) []string {
	envMap := make(map[string]string, len(allowListedEnvVars)+len(targetEnv))
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	maps.Copy(envMap, targetEnv)

	result := make([]string, 0, len(envMap))
	for _, k := range slices.Sorted(maps.Keys(envMap)) {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// expandArgs replaces ${NAME} with the value of NAME in env, so commands like
// `dotnet build -c ${GATE_CONFIGURATION}` work without a shell. References to
// variables missing from env are kept as written.
func expandArgs(args, env []string) []string {
	values := make(map[string]string, len(env))
	for _, entry := range env {
		if k, v, ok := strings.Cut(entry, "="); ok {
			values[k] = v
		}
	}

	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = envRef.ReplaceAllStringFunc(arg, func(ref string) string {
			if v, ok := values[ref[2:len(ref)-1]]; ok {
				return v
			}
			return ref
		})
	}
	return out
}

// lookPath searches the PATH of env rather than the PATH of the gate process.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func isExecutable(file string) bool {
	d, err := os.Stat(file)
	if err != nil {
		return false
	}
	m := d.Mode()
	return !m.IsDir() && m&0o111 != 0
}
