package ports

import "go.trai.ch/gate/internal/core/domain"

// ConfigLoader defines the interface for loading the pipeline configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load walks up from cwd to the nearest gate.yaml and returns the validated pipeline.
	Load(cwd string) (*domain.Pipeline, error)

	// LoadFile reads the configuration at an explicit path.
	LoadFile(path string) (*domain.Pipeline, error)

	// DiscoverRoot walks up from cwd to find the directory containing gate.yaml.
	DiscoverRoot(cwd string) (string, error)
}
