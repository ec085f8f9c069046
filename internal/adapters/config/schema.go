package config

import "gopkg.in/yaml.v3"

// Gatefile represents the structure of gate.yaml.
type Gatefile struct {
	Version  string       `yaml:"version"`
	Root     string       `yaml:"root"`
	Settings SettingsDTO  `yaml:"settings"`
	Branches BranchesDTO  `yaml:"branches"`
	Policy   PolicyDTO    `yaml:"policy"`
	Triggers []TriggerDTO `yaml:"triggers"`
	// Targets is kept as a node so declaration order survives decoding.
	Targets yaml.Node `yaml:"targets"`
}

// SettingsDTO holds execution defaults.
type SettingsDTO struct {
	FailFast      *bool  `yaml:"failFast"`
	Parallelism   int    `yaml:"parallelism"`
	Configuration string `yaml:"configuration"`
	Default       string `yaml:"default"`
}

// BranchesDTO names the variables branch information is read from.
type BranchesDTO struct {
	RefVar            string `yaml:"refVar"`
	BaseRefVar        string `yaml:"baseRefVar"`
	EventPathVar      string `yaml:"eventPathVar"`
	PullRequestPrefix string `yaml:"pullRequestPrefix"`
}

// PolicyDTO is the branch merge policy.
type PolicyDTO struct {
	Unmatched string            `yaml:"unmatched"`
	Rules     map[string]string `yaml:"rules"`
}

// TargetDTO represents a target definition in the configuration.
type TargetDTO struct {
	Description string            `yaml:"description"`
	DependsOn   []string          `yaml:"dependsOn"`
	Before      []string          `yaml:"before"`
	Cmd         []string          `yaml:"cmd"`
	Environment map[string]string `yaml:"environment"`
	WorkingDir  string            `yaml:"workingDir"`
	Gate        bool              `yaml:"gate"`
}

// TriggerDTO maps a CI event to targets.
type TriggerDTO struct {
	Name     string   `yaml:"name"`
	On       string   `yaml:"on"`
	Branches []string `yaml:"branches"`
	Targets  []string `yaml:"targets"`
}
