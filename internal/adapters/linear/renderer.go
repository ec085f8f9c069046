// Package linear provides a line-buffered renderer for CI environments.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/gate/internal/core/ports"
	"go.trai.ch/gate/internal/ui/output"
	"go.trai.ch/gate/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer with chronological, prefixed log lines.
// Target output goes to stdout, lifecycle messages to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	targets map[string]*targetState // spanID -> state
}

type targetState struct {
	name      string
	startTime time.Time
	buf       bytes.Buffer
}

// NewRenderer creates a Renderer. Nil writers default to the process streams.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.NewWithProfile(stderr, output.ColorProfileANSI),
		targets: make(map[string]*targetState),
	}
}

// Start is a no-op; the renderer is synchronous.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes partial lines of targets that never completed.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, state := range r.targets {
		r.flushLocked(state)
	}
	return nil
}

// Wait is a no-op; the renderer is synchronous.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the execution order.
func (r *Renderer) OnPlanEmit(targets []string, deps map[string][]string, requested []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Planning %d target(s) for %v\n", len(targets), requested)
	for i, name := range targets {
		line := fmt.Sprintf("  %d. %s", i+1, name)
		if after := deps[name]; len(after) > 0 {
			line += r.output.String(fmt.Sprintf(" (after %v)", after)).Faint().String()
		}
		_, _ = fmt.Fprintln(r.stderr, line)
	}
}

// OnTaskStart prints a start message.
func (r *Renderer) OnTaskStart(spanID, _, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.targets[spanID] = &targetState{name: name, startTime: startTime}
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.prefix(name))
}

// OnTaskLog prints complete lines with the target prefix and keeps the rest buffered.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.targets[spanID]
	if !ok {
		return
	}

	state.buf.Write(data)
	for {
		i := bytes.IndexByte(state.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := state.buf.Next(i + 1)
		r.printLineLocked(state.name, line)
	}
}

// OnTaskComplete flushes the target's output and prints its outcome.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.targets[spanID]
	if !ok {
		return
	}
	r.flushLocked(state)
	delete(r.targets, spanID)

	duration := endTime.Sub(state.startTime).Round(time.Millisecond)
	if err != nil {
		icon := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", r.prefix(state.name), icon, duration, err)
		return
	}
	icon := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", r.prefix(state.name), icon, duration)
}

func (r *Renderer) prefix(name string) string {
	return r.output.String("[" + name + "]").Faint().String()
}

// flushLocked must be called with r.mu held.
func (r *Renderer) flushLocked(state *targetState) {
	if state.buf.Len() > 0 {
		r.printLineLocked(state.name, state.buf.Bytes())
		state.buf.Reset()
	}
}

// printLineLocked must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
