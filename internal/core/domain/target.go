package domain

import (
	"context"
	"io"
	"maps"
)

// Action is the unit of work a target performs. Output written to out is
// attributed to the target by the renderer. The returned error is opaque to the
// engine and surfaced unchanged.
type Action func(ctx context.Context, out io.Writer) error

// Gate is a precondition evaluated right before a target's action.
// A non-nil error fails the target exactly like an action error.
type Gate func(ctx context.Context) error

// Target represents a named node in the pipeline.
type Target struct {
	Name        string
	Description string
	// DependsOn lists targets that must succeed before this one runs.
	// They are pulled into any plan that includes this target.
	DependsOn []string
	// RunsBefore lists targets this one must precede when both are planned.
	// It orders, it never pulls targets into a plan.
	RunsBefore []string

	Command     []string
	Environment map[string]string
	WorkingDir  string
	// Gated marks targets protected by the merge policy.
	Gated bool

	Action Action
	Gate   Gate
}

// WithEnv returns a copy of t with key set in its environment. A value the
// target declares itself wins.
func (t Target) WithEnv(key, value string) Target {
	if _, ok := t.Environment[key]; ok {
		return t
	}
	env := make(map[string]string, len(t.Environment)+1)
	maps.Copy(env, t.Environment)
	env[key] = value
	t.Environment = env
	return t
}

// HasAction reports whether the target does any work beyond ordering.
func (t *Target) HasAction() bool {
	return t.Action != nil
}
