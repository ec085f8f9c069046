package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/gate/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer runs the Bubble Tea program as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		errCh:   make(chan error, 1),
	}
}

// Start launches the program in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop asks the program to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program has terminated.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlanEmit forwards the plan to the program.
func (r *Renderer) OnPlanEmit(targets []string, deps map[string][]string, requested []string) {
	r.program.Send(MsgInitTargets{
		Targets:      targets,
		Dependencies: deps,
		Requested:    requested,
	})
}

// OnTaskStart forwards target start events.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.program.Send(MsgTargetStart{
		SpanID:    spanID,
		ParentID:  parentID,
		Name:      name,
		StartTime: startTime,
	})
}

// OnTaskLog forwards target output. The chunk is copied since callers reuse buffers.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.program.Send(MsgTargetLog{
		SpanID: spanID,
		Data:   append([]byte(nil), data...),
	})
}

// OnTaskComplete forwards target completion events.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(MsgTargetComplete{
		SpanID:  spanID,
		EndTime: endTime,
		Err:     err,
	})
}
