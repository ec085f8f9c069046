package domain

import (
	"path"
	"slices"
)

// Supported trigger events.
const (
	EventPush             = "push"
	EventPullRequest      = "pull_request"
	EventWorkflowDispatch = "workflow_dispatch"
)

// Build configurations.
const (
	ConfigurationDebug   = "Debug"
	ConfigurationRelease = "Release"
)

// ConfigurationEnvVar carries the build configuration into target commands.
const ConfigurationEnvVar = "GATE_CONFIGURATION"

// Settings holds execution defaults from configuration.
type Settings struct {
	FailFast    bool
	Parallelism int
	// Configuration is the build configuration. Empty means Release in CI, Debug otherwise.
	Configuration string
	// Default is the target run when none is requested.
	Default string
}

// ResolveConfiguration picks the build configuration: the flag, then the
// configured value, then Release in CI and Debug elsewhere.
func ResolveConfiguration(flag, configured string, ci bool) string {
	switch {
	case flag != "":
		return flag
	case configured != "":
		return configured
	case ci:
		return ConfigurationRelease
	default:
		return ConfigurationDebug
	}
}

// DefaultSettings returns fail-fast, strictly sequential execution.
func DefaultSettings() Settings {
	return Settings{FailFast: true, Parallelism: 1}
}

// Trigger maps a CI event on matching branches to targets.
type Trigger struct {
	Name     string
	On       string
	Branches []string
	Targets  []string
}

// Matches reports whether the trigger fires for the event on the branch.
// A trigger without branch patterns matches every branch.
func (t Trigger) Matches(event, branch string) bool {
	if t.On != event {
		return false
	}
	if len(t.Branches) == 0 {
		return true
	}
	for _, pattern := range t.Branches {
		if ok, err := path.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}

// Pipeline is the validated, immutable form of a configuration file.
type Pipeline struct {
	Root     string
	Settings Settings
	Branches BranchSettings
	Policy   MergePolicy
	// Targets are in declaration order, without actions bound.
	Targets  []Target
	Triggers []Trigger
}

// Target returns the declared target with the given name.
func (p *Pipeline) Target(name string) (Target, bool) {
	for _, t := range p.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// Validate checks names, references, the default target, the policy default
// and the trigger table.
func (p *Pipeline) Validate() error {
	if _, err := ParsePolicyDefault(string(p.Policy.Unmatched)); err != nil {
		return err
	}

	declared := make(map[string]bool, len(p.Targets))
	for _, t := range p.Targets {
		if err := ValidateTargetName(t.Name); err != nil {
			return err
		}
		if declared[t.Name] {
			return Tag(ErrDuplicateTarget, "target", t.Name)
		}
		declared[t.Name] = true
	}

	if name := p.Settings.Default; name != "" && !declared[name] {
		return Tag(ErrUnknownTarget, "setting", "default", "target", name)
	}

	for _, t := range p.Targets {
		for _, ref := range slices.Concat(t.DependsOn, t.RunsBefore) {
			if !declared[ref] {
				return Tag(ErrUnknownTarget, "target", t.Name, "reference", ref)
			}
		}
	}

	for _, trig := range p.Triggers {
		switch trig.On {
		case EventPush, EventPullRequest, EventWorkflowDispatch:
		default:
			return Tag(ErrUnknownTriggerEvent, "trigger", trig.Name, "event", trig.On)
		}
		for _, pattern := range trig.Branches {
			if _, err := path.Match(pattern, ""); err != nil {
				return Tag(ErrInvalidBranchPattern, "trigger", trig.Name, "pattern", pattern)
			}
		}
		if len(trig.Targets) == 0 {
			return Tag(ErrConfigInvalid, "trigger", trig.Name, "reason", "no targets")
		}
		for _, name := range trig.Targets {
			if !declared[name] {
				return Tag(ErrUnknownTarget, "trigger", trig.Name, "target", name)
			}
		}
	}
	return nil
}

// MatchTriggers returns the targets of every trigger matching event and branch,
// de-duplicated in table order.
func (p *Pipeline) MatchTriggers(event, branch string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, trig := range p.Triggers {
		if !trig.Matches(event, branch) {
			continue
		}
		for _, name := range trig.Targets {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// NewRegistry registers every declared target after passing it through bind,
// and seals the result.
func (p *Pipeline) NewRegistry(bind func(Target) Target) (*Registry, error) {
	reg := NewRegistry()
	for _, t := range p.Targets {
		if bind != nil {
			t = bind(t)
		}
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	if err := reg.Seal(); err != nil {
		return nil, err
	}
	return reg, nil
}
