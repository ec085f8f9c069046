package domain

import (
	"fmt"
	"sort"
)

// PolicyDefault decides how a target branch without a rule is treated.
type PolicyDefault string

const (
	// PolicyPermit lets any source merge into a target branch without a rule.
	PolicyPermit PolicyDefault = "permit"
	// PolicyDeny rejects merges into a target branch without a rule.
	PolicyDeny PolicyDefault = "deny"
)

// ParsePolicyDefault converts a configuration value. The empty string means permit.
func ParsePolicyDefault(s string) (PolicyDefault, error) {
	switch PolicyDefault(s) {
	case "", PolicyPermit:
		return PolicyPermit, nil
	case PolicyDeny:
		return PolicyDeny, nil
	default:
		return "", Tag(ErrInvalidPolicyDefault, "value", s)
	}
}

// MergePolicy maps a target branch to the single source branch allowed to merge into it.
type MergePolicy struct {
	Rules     map[string]string
	Unmatched PolicyDefault
}

// TargetBranches returns the branches that have a rule, sorted.
func (p MergePolicy) TargetBranches() []string {
	out := make([]string, 0, len(p.Rules))
	for target := range p.Rules {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

// PolicyViolation is returned when a source branch is not allowed to merge into a target branch.
// Required is empty when the target branch has no rule and unmatched branches are denied.
type PolicyViolation struct {
	Target   string
	Required string
	Actual   string
}

func (v *PolicyViolation) Error() string {
	if v.Required == "" {
		return fmt.Sprintf("merges into %q are not allowed: no rule for this branch (source %q)", v.Target, v.Actual)
	}
	return fmt.Sprintf("merges into %q must come from %q, got %q", v.Target, v.Required, v.Actual)
}

// Unwrap makes every violation match ErrPolicyViolation.
func (v *PolicyViolation) Unwrap() error {
	return ErrPolicyViolation
}

// CheckPolicy validates that source may merge into target.
func CheckPolicy(policy MergePolicy, source, target string) error {
	required, ok := policy.Rules[target]
	if !ok {
		if policy.Unmatched == PolicyDeny {
			return &PolicyViolation{Target: target, Actual: source}
		}
		return nil
	}
	if source != required {
		return &PolicyViolation{Target: target, Required: required, Actual: source}
	}
	return nil
}
