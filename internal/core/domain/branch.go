package domain

import "strings"

// DefaultPullRequestPrefix marks synthetic pull request references.
const DefaultPullRequestPrefix = "refs/pull/"

// BranchRef is a resolved branch identity.
// Name is always a literal branch name, never a pull request ref.
type BranchRef struct {
	Name string
	// Raw is the reference the name was resolved from.
	Raw string
	// FromEvent is set when Name was read from the pull request event payload.
	FromEvent bool
}

func (b BranchRef) String() string {
	return b.Name
}

// IsPullRequestRef reports whether ref is a synthetic pull request reference.
// An empty prefix falls back to DefaultPullRequestPrefix.
func IsPullRequestRef(ref, prefix string) bool {
	if prefix == "" {
		prefix = DefaultPullRequestPrefix
	}
	return strings.HasPrefix(ref, prefix)
}

// BranchSettings names where branch information is read from.
type BranchSettings struct {
	RefVar            string
	BaseRefVar        string
	EventPathVar      string
	PullRequestPrefix string
}

// DefaultBranchSettings returns the GitHub Actions conventions.
func DefaultBranchSettings() BranchSettings {
	return BranchSettings{
		RefVar:            "GITHUB_REF",
		BaseRefVar:        "GITHUB_BASE_REF",
		EventPathVar:      "GITHUB_EVENT_PATH",
		PullRequestPrefix: DefaultPullRequestPrefix,
	}
}

// WithDefaults fills empty fields from DefaultBranchSettings.
func (s BranchSettings) WithDefaults() BranchSettings {
	d := DefaultBranchSettings()
	if s.RefVar == "" {
		s.RefVar = d.RefVar
	}
	if s.BaseRefVar == "" {
		s.BaseRefVar = d.BaseRefVar
	}
	if s.EventPathVar == "" {
		s.EventPathVar = d.EventPathVar
	}
	if s.PullRequestPrefix == "" {
		s.PullRequestPrefix = d.PullRequestPrefix
	}
	return s
}
