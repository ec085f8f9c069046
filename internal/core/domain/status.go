package domain

import (
	"errors"
	"time"
)

// TargetStatus represents the outcome of a planned target.
type TargetStatus string

const (
	// StatusNotRun is the initial status of every planned target.
	StatusNotRun TargetStatus = "not_run"
	// StatusSucceeded indicates the gate and the action both completed without error.
	StatusSucceeded TargetStatus = "succeeded"
	// StatusFailed indicates the gate or the action returned an error.
	StatusFailed TargetStatus = "failed"
	// StatusSkipped indicates the target was never started because of an upstream
	// failure, fail-fast, or cancellation.
	StatusSkipped TargetStatus = "skipped"
)

// IsTerminal reports whether the status can no longer change.
func (s TargetStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// TargetOutcome is the recorded result of a single target.
type TargetOutcome struct {
	Name     string
	Status   TargetStatus
	Err      error
	Duration time.Duration
}

// Result is the outcome of executing a plan.
type Result struct {
	Plan     *Plan
	Outcomes map[string]TargetOutcome
}

// NewResult creates a result with every planned target in StatusNotRun.
func NewResult(plan *Plan) *Result {
	res := &Result{
		Plan:     plan,
		Outcomes: make(map[string]TargetOutcome, plan.Len()),
	}
	for _, name := range plan.order {
		res.Outcomes[name] = TargetOutcome{Name: name, Status: StatusNotRun}
	}
	return res
}

// Status returns the status of the named target.
func (r *Result) Status(name string) TargetStatus {
	if o, ok := r.Outcomes[name]; ok {
		return o.Status
	}
	return StatusNotRun
}

// Statuses returns a copy of the status map.
func (r *Result) Statuses() map[string]TargetStatus {
	out := make(map[string]TargetStatus, len(r.Outcomes))
	for name, o := range r.Outcomes {
		out[name] = o.Status
	}
	return out
}

// Success reports whether every planned target succeeded.
func (r *Result) Success() bool {
	for _, o := range r.Outcomes {
		if o.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// Failed returns the failed targets in plan order.
func (r *Result) Failed() []string {
	return r.withStatus(StatusFailed)
}

// Skipped returns the skipped targets in plan order.
func (r *Result) Skipped() []string {
	return r.withStatus(StatusSkipped)
}

func (r *Result) withStatus(status TargetStatus) []string {
	var out []string
	for _, name := range r.Plan.order {
		if r.Outcomes[name].Status == status {
			out = append(out, name)
		}
	}
	return out
}

// Err joins the errors of all failed targets, each tagged with ErrTargetFailed and
// the target name. The original error stays reachable through errors.Is/As.
// It returns nil when the run succeeded.
func (r *Result) Err() error {
	if r.Success() {
		return nil
	}

	var errs []error
	for _, name := range r.Plan.order {
		o := r.Outcomes[name]
		if o.Status != StatusFailed {
			continue
		}
		errs = append(errs, &TargetError{Target: name, Err: o.Err})
	}
	if len(errs) == 0 {
		return Tag(ErrPipelineFailed, "skipped", r.Skipped())
	}
	return errors.Join(errs...)
}

// TargetError carries the opaque error of a failed target.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	if e.Err == nil {
		return "target " + e.Target + " failed"
	}
	return "target " + e.Target + " failed: " + e.Err.Error()
}

// Unwrap exposes both the ErrTargetFailed sentinel and the original error.
func (e *TargetError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTargetFailed}
	}
	return []error{ErrTargetFailed, e.Err}
}
