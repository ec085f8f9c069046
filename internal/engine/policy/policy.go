// Package policy decides whether a gated target may run for the current merge.
package policy

import (
	"context"

	"github.com/tidwall/gjson"
	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports"
)

// HeadRefPath locates the source branch inside a pull request event.
const HeadRefPath = "pull_request.head.ref"

// ResolveSourceBranch turns rawRef into a literal branch name using the default
// pull request prefix. See Evaluator.ResolveSourceBranch.
func ResolveSourceBranch(ctx context.Context, rawRef string, loader ports.EventLoader) (domain.BranchRef, error) {
	return resolveSource(ctx, rawRef, domain.DefaultPullRequestPrefix, loader)
}

// ResolveTargetBranch reads the base ref variable from the default branch settings.
func ResolveTargetBranch(env ports.Environment) (string, error) {
	return resolveTarget(env, domain.DefaultBranchSettings().BaseRefVar)
}

func resolveSource(ctx context.Context, rawRef, prefix string, loader ports.EventLoader) (domain.BranchRef, error) {
	if !domain.IsPullRequestRef(rawRef, prefix) {
		return domain.BranchRef{Name: rawRef, Raw: rawRef}, nil
	}

	if loader == nil {
		return domain.BranchRef{}, domain.Tag(domain.ErrMalformedEventPayload, "ref", rawRef)
	}
	data, err := loader.Load(ctx)
	if err != nil {
		return domain.BranchRef{}, domain.Cause(domain.ErrMalformedEventPayload, err, "ref", rawRef)
	}
	if !gjson.ValidBytes(data) {
		return domain.BranchRef{}, domain.Tag(domain.ErrMalformedEventPayload, "ref", rawRef, "reason", "invalid json")
	}

	head := gjson.GetBytes(data, HeadRefPath)
	if head.Type != gjson.String || head.Str == "" {
		return domain.BranchRef{}, domain.Tag(domain.ErrMalformedEventPayload, "ref", rawRef, "field", HeadRefPath)
	}
	return domain.BranchRef{Name: head.Str, Raw: rawRef, FromEvent: true}, nil
}

func resolveTarget(env ports.Environment, key string) (string, error) {
	value, ok := env.Lookup(key)
	if !ok || value == "" {
		return "", domain.Tag(domain.ErrMissingTargetBranch, "variable", key)
	}
	return value, nil
}
