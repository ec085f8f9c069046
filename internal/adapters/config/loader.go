// Package config loads gate.yaml into a domain.Pipeline.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only configuration version understood by this loader.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load walks up from cwd to the nearest gate.yaml and loads it.
func (l *Loader) Load(cwd string) (*domain.Pipeline, error) {
	root, err := l.DiscoverRoot(cwd)
	if err != nil {
		return nil, err
	}
	return l.LoadFile(filepath.Join(root, domain.ConfigFileName))
}

// DiscoverRoot returns the nearest directory at or above cwd containing gate.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", domain.Cause(domain.ErrConfigNotFound, err, "cwd", cwd)
	}

	for dir := abs; ; {
		if info, statErr := os.Stat(filepath.Join(dir, domain.ConfigFileName)); statErr == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", domain.Tag(domain.ErrConfigNotFound, "cwd", cwd)
		}
		dir = parent
	}
}

// LoadFile reads and validates the configuration at path.
func (l *Loader) LoadFile(path string) (*domain.Pipeline, error) {
	var file Gatefile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, err
	}

	pipeline, err := l.buildPipeline(path, &file)
	if err != nil {
		return nil, zerr.With(err, "file", path)
	}
	return pipeline, nil
}

func (l *Loader) buildPipeline(path string, file *Gatefile) (*domain.Pipeline, error) {
	if file.Version != "" && file.Version != SupportedVersion {
		return nil, domain.Tag(domain.ErrConfigInvalid, "version", file.Version)
	}

	settings, err := buildSettings(file.Settings)
	if err != nil {
		return nil, err
	}

	root := resolveRoot(path, file.Root)
	targets, err := decodeTargets(&file.Targets, root)
	if err != nil {
		return nil, err
	}

	unmatched, err := domain.ParsePolicyDefault(file.Policy.Unmatched)
	if err != nil {
		return nil, err
	}
	if file.Policy.Unmatched == "" && len(file.Policy.Rules) > 0 {
		l.Logger.Warn("policy.unmatched is not set, branches without a rule are permitted",
			"file", path)
	}

	pipeline := &domain.Pipeline{
		Root:     root,
		Settings: settings,
		Branches: domain.BranchSettings(file.Branches).WithDefaults(),
		Policy: domain.MergePolicy{
			Rules:     file.Policy.Rules,
			Unmatched: unmatched,
		},
		Targets:  targets,
		Triggers: buildTriggers(file.Triggers),
	}
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	return pipeline, nil
}

func buildSettings(dto SettingsDTO) (domain.Settings, error) {
	settings := domain.DefaultSettings()
	settings.Configuration = dto.Configuration
	settings.Default = dto.Default
	if dto.FailFast != nil {
		settings.FailFast = *dto.FailFast
	}
	switch {
	case dto.Parallelism < 0:
		return settings, domain.Tag(domain.ErrConfigInvalid, "parallelism", dto.Parallelism)
	case dto.Parallelism > 0:
		settings.Parallelism = dto.Parallelism
	}
	return settings, nil
}

// decodeTargets walks the targets mapping in document order.
func decodeTargets(node *yaml.Node, root string) ([]domain.Target, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, domain.Tag(domain.ErrConfigInvalid, "field", "targets", "line", node.Line)
	}

	targets := make([]domain.Target, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var dto TargetDTO
		if value.Kind != 0 && !isNull(value) {
			if err := value.Decode(&dto); err != nil {
				return nil, domain.Cause(domain.ErrConfigParseFailed, err, "target", key.Value)
			}
		}
		targets = append(targets, buildTarget(key.Value, &dto, root))
	}
	return targets, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func buildTarget(name string, dto *TargetDTO, root string) domain.Target {
	return domain.Target{
		Name:        name,
		Description: dto.Description,
		DependsOn:   dto.DependsOn,
		RunsBefore:  dto.Before,
		Command:     dto.Cmd,
		Environment: dto.Environment,
		WorkingDir:  resolveWorkingDir(root, dto.WorkingDir),
		Gated:       dto.Gate,
	}
}

func buildTriggers(dtos []TriggerDTO) []domain.Trigger {
	if len(dtos) == 0 {
		return nil
	}
	triggers := make([]domain.Trigger, 0, len(dtos))
	for i, dto := range dtos {
		name := dto.Name
		if name == "" {
			name = "trigger-" + strconv.Itoa(i+1)
		}
		triggers = append(triggers, domain.Trigger{
			Name:     name,
			On:       dto.On,
			Branches: dto.Branches,
			Targets:  dto.Targets,
		})
	}
	return triggers
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// resolveWorkingDir resolves a target working directory against the root.
func resolveWorkingDir(root, configured string) string {
	if configured == "" {
		return root
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(root, configured))
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is chosen by the user or found by discovery
	data, err := os.ReadFile(configPath)
	if err != nil {
		return domain.Cause(domain.ErrConfigReadFailed, err, "file", configPath)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return domain.Cause(domain.ErrConfigParseFailed, err, "file", configPath)
	}
	return nil
}
