// Package tui provides an interactive terminal view of a running pipeline.
package tui

import (
	"io"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/gate/internal/ui/output"
)

// NewModel creates a model that follows running targets. A nil writer means stderr.
func NewModel(w io.Writer) Model {
	out := output.New(w)
	lipgloss.SetColorProfile(out.Profile)

	return Model{
		Targets:    make([]*TargetNode, 0),
		TargetMap:  make(map[string]*TargetNode),
		SpanMap:    make(map[string]*TargetNode),
		Viewport:   viewport.New(0, 0),
		FollowMode: true,
	}
}
