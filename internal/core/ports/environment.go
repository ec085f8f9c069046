package ports

import (
	"context"

	"go.trai.ch/gate/internal/core/domain"
)

//go:generate mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks

// Environment looks up variables of the CI context.
type Environment interface {
	// Lookup returns the value and whether the key was present.
	Lookup(key string) (string, bool)
}

// EventLoader supplies the raw pull request event document.
type EventLoader interface {
	// Load returns the JSON document. A missing document is an error.
	Load(ctx context.Context) ([]byte, error)
}

// RefSource reports the git reference the pipeline runs for.
type RefSource interface {
	// CurrentRef returns a branch name or a synthetic pull request ref.
	CurrentRef(ctx context.Context) (string, error)
}

// CIContext builds the branch information sources for a pipeline's settings.
type CIContext interface {
	// Environment returns the variables of the CI context.
	Environment() Environment
	// EventLoader returns a loader for the event document named by settings.EventPathVar.
	EventLoader(settings domain.BranchSettings) EventLoader
	// RefSource returns the source of the current ref named by settings.RefVar.
	RefSource(settings domain.BranchSettings) RefSource
}
