package policy

import (
	"context"
	"sync"

	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports"
)

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Source domain.BranchRef
	Target string
	// Err is nil when the merge is allowed, otherwise a *domain.PolicyViolation.
	Err error
}

// Allowed reports whether the merge may proceed.
func (d Decision) Allowed() bool {
	return d.Err == nil
}

// Evaluator checks the merge of the current run against a MergePolicy.
type Evaluator struct {
	settings domain.BranchSettings
	policy   domain.MergePolicy
	env      ports.Environment
	loader   ports.EventLoader
	refs     ports.RefSource
	logger   ports.Logger

	mu   sync.Mutex
	last *Decision
}

// NewEvaluator creates an Evaluator. Empty branch settings fall back to the GitHub defaults.
func NewEvaluator(
	settings domain.BranchSettings,
	policy domain.MergePolicy,
	env ports.Environment,
	loader ports.EventLoader,
	refs ports.RefSource,
	logger ports.Logger,
) *Evaluator {
	return &Evaluator{
		settings: settings.WithDefaults(),
		policy:   policy,
		env:      env,
		loader:   loader,
		refs:     refs,
		logger:   logger,
	}
}

// ResolveSourceBranch returns rawRef unchanged unless it is a pull request ref,
// in which case the head branch is read from the event payload. The payload is
// only loaded for pull request refs.
func (e *Evaluator) ResolveSourceBranch(ctx context.Context, rawRef string) (domain.BranchRef, error) {
	return resolveSource(ctx, rawRef, e.settings.PullRequestPrefix, e.loader)
}

// ResolveTargetBranch reads the destination branch from the base ref variable.
func (e *Evaluator) ResolveTargetBranch() (string, error) {
	return resolveTarget(e.env, e.settings.BaseRefVar)
}

// Evaluate resolves both branches and checks them against the policy.
// The returned error covers resolution failures only; a violation is
// reported through Decision.Err.
func (e *Evaluator) Evaluate(ctx context.Context) (Decision, error) {
	raw, err := e.refs.CurrentRef(ctx)
	if err != nil {
		return Decision{}, err
	}

	source, err := e.ResolveSourceBranch(ctx, raw)
	if err != nil {
		return Decision{}, err
	}

	target, err := e.ResolveTargetBranch()
	if err != nil {
		return Decision{Source: source}, err
	}

	return Decision{
		Source: source,
		Target: target,
		Err:    domain.CheckPolicy(e.policy, source.Name, target),
	}, nil
}

// Gate is the domain.Gate bound to gated targets.
func (e *Evaluator) Gate(ctx context.Context) error {
	decision, err := e.Evaluate(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.last = &decision
	e.mu.Unlock()

	if !decision.Allowed() {
		e.logger.Warn("merge rejected by branch policy",
			"source", decision.Source.Name, "target", decision.Target)
		return decision.Err
	}

	e.logger.Info("merge allowed by branch policy",
		"source", decision.Source.Name, "target", decision.Target, "from_event", decision.Source.FromEvent)
	return nil
}

// LastDecision returns the decision of the most recent Gate call that resolved both branches.
func (e *Evaluator) LastDecision() (Decision, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Decision{}, false
	}
	return *e.last, true
}
