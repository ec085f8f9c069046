// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/gate/internal/core/domain"
)

// Executor defines the interface for running a target's command.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command of the given target in its working directory with
	// its environment applied.
	//
	// It returns an error if the command cannot be started or exits non-zero.
	Execute(ctx context.Context, target *domain.Target, stdout, stderr io.Writer) error
}
