package github

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gate/internal/core/ports"
)

// NodeID is the unique identifier for the CI context Graft node.
const NodeID graft.ID = "adapter.github"

func init() {
	graft.Register(graft.Node[ports.CIContext]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.CIContext, error) {
			return NewActions(), nil
		},
	})
}
