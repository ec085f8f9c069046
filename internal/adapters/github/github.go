// Package github reads branch information from a GitHub Actions environment.
package github

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports"
)

const headsPrefix = "refs/heads/"

// GitFunc returns the output of `git rev-parse --abbrev-ref HEAD`.
type GitFunc func(ctx context.Context) (string, error)

// Actions implements ports.CIContext for GitHub Actions.
type Actions struct {
	lookup func(string) (string, bool)
	git    GitFunc
}

var _ ports.CIContext = (*Actions)(nil)

// NewActions creates an Actions context backed by the process environment and git.
func NewActions() *Actions {
	return &Actions{lookup: os.LookupEnv, git: gitCurrentBranch}
}

// NewActionsWith creates an Actions context from explicit sources.
// A nil git function disables the git fallback.
func NewActionsWith(lookup func(string) (string, bool), git GitFunc) *Actions {
	return &Actions{lookup: lookup, git: git}
}

// Environment returns the variables of the CI context.
func (a *Actions) Environment() ports.Environment {
	return Env(a.lookup)
}

// EventLoader returns a loader for the file named by settings.EventPathVar.
func (a *Actions) EventLoader(settings domain.BranchSettings) ports.EventLoader {
	return &EventFile{env: a.Environment(), pathVar: settings.WithDefaults().EventPathVar}
}

// RefSource returns the current ref named by settings.RefVar, falling back to git.
func (a *Actions) RefSource(settings domain.BranchSettings) ports.RefSource {
	return &RefSource{env: a.Environment(), refVar: settings.WithDefaults().RefVar, git: a.git}
}

// Env adapts a lookup function to ports.Environment.
type Env func(string) (string, bool)

// Lookup returns the value and whether the key was present.
func (e Env) Lookup(key string) (string, bool) {
	return e(key)
}

// MapEnv is a fixed environment, used when branches are given on the command line.
type MapEnv map[string]string

// Lookup returns the value and whether the key was present.
func (m MapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// EventFile loads the event document from the path held in a variable.
type EventFile struct {
	env     ports.Environment
	pathVar string
}

// Load reads the event document.
func (f *EventFile) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, ok := f.env.Lookup(f.pathVar)
	if !ok || path == "" {
		return nil, domain.Tag(domain.ErrEventNotAvailable, "variable", f.pathVar)
	}

	// #nosec G304 -- the path is provided by the CI runner
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.Cause(domain.ErrEventNotAvailable, err, "path", path)
	}
	return data, nil
}

// RefSource reports the ref the pipeline runs for.
type RefSource struct {
	env    ports.Environment
	refVar string
	git    GitFunc
}

// CurrentRef returns the ref variable with refs/heads/ stripped. Pull request
// refs are returned unchanged. Without the variable the checked out branch is used.
func (r *RefSource) CurrentRef(ctx context.Context) (string, error) {
	if ref, ok := r.env.Lookup(r.refVar); ok && ref != "" {
		return strings.TrimPrefix(ref, headsPrefix), nil
	}

	if r.git == nil {
		return "", domain.Tag(domain.ErrMissingSourceRef, "variable", r.refVar)
	}
	branch, err := r.git(ctx)
	if err != nil {
		return "", domain.Cause(domain.ErrMissingSourceRef, err, "variable", r.refVar)
	}
	branch = strings.TrimSpace(branch)
	if branch == "" || branch == "HEAD" {
		return "", domain.Tag(domain.ErrMissingSourceRef, "variable", r.refVar, "reason", "detached HEAD")
	}
	return branch, nil
}

func gitCurrentBranch(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
