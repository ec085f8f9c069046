// Package scheduler executes resolved plans.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports"
)

// Options configures a single execution.
type Options struct {
	// Parallelism bounds how many independent targets run at once. Values below 1 mean 1.
	Parallelism int
	// ContinueOnError keeps running targets unrelated to a failure.
	ContinueOnError bool
}

// Scheduler runs the targets of a plan in dependency order.
type Scheduler struct {
	tracer ports.Tracer

	mu           sync.Mutex
	targetStatus map[string]domain.TargetStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(tracer ports.Tracer) *Scheduler {
	return &Scheduler{
		tracer:       tracer,
		targetStatus: make(map[string]domain.TargetStatus),
	}
}

// initTargetStatuses resets the status map to NotRun for the planned targets.
func (s *Scheduler) initTargetStatuses(targets []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.targetStatus = make(map[string]domain.TargetStatus, len(targets))
	for _, name := range targets {
		s.targetStatus[name] = domain.StatusNotRun
	}
}

// updateStatus records a terminal status. A terminal status is never overwritten.
func (s *Scheduler) updateStatus(name string, status domain.TargetStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.targetStatus[name].IsTerminal() {
		return false
	}
	s.targetStatus[name] = status
	return true
}

// Execute runs the plan against the registry it was resolved from.
//
// Cancelling ctx stops new targets from starting; targets already running finish
// and every target that never started is marked skipped. The returned error is
// only set when the plan references targets the registry does not know.
func (s *Scheduler) Execute(
	ctx context.Context,
	registry *domain.Registry,
	plan *domain.Plan,
	opts Options,
) (*domain.Result, error) {
	state, err := s.newRunState(ctx, registry, plan, opts)
	if err != nil {
		return nil, err
	}

	deps := make(map[string][]string, plan.Len())
	for _, name := range plan.Order() {
		deps[name] = plan.After(name)
	}
	s.tracer.EmitPlan(ctx, plan.Order(), deps, plan.Requested())

	s.initTargetStatuses(plan.Order())
	state.runExecutionLoop()

	return state.res, nil
}

type result struct {
	target   string
	err      error
	duration time.Duration
}

type schedulerRunState struct {
	ctx             context.Context
	execCtx         context.Context
	plan            *domain.Plan
	targets         map[string]*domain.Target
	successors      map[string][]string
	inDegree        map[string]int
	ready           []string
	active          int
	running         map[string]bool
	resultsCh       chan result
	parallelism     int
	continueOnError bool
	halted          bool
	s               *Scheduler
	res             *domain.Result
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	registry *domain.Registry,
	plan *domain.Plan,
	opts Options,
) (*schedulerRunState, error) {
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	order := plan.Order()
	targets := make(map[string]*domain.Target, len(order))
	successors := make(map[string][]string, len(order))
	inDegree := make(map[string]int, len(order))

	for _, name := range order {
		t, err := registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		targets[name] = t

		after := plan.After(name)
		inDegree[name] = len(after)
		for _, dep := range after {
			successors[dep] = append(successors[dep], name)
		}
	}

	state := &schedulerRunState{
		ctx: ctx,
		// Running targets are allowed to finish after cancellation.
		execCtx:         context.WithoutCancel(ctx),
		plan:            plan,
		targets:         targets,
		successors:      successors,
		inDegree:        inDegree,
		running:         make(map[string]bool),
		resultsCh:       make(chan result, parallelism),
		parallelism:     parallelism,
		continueOnError: opts.ContinueOnError,
		s:               s,
		res:             domain.NewResult(plan),
	}

	for _, name := range order {
		if inDegree[name] == 0 {
			state.enqueue(name)
		}
	}
	return state, nil
}

func (state *schedulerRunState) runExecutionLoop() {
	done := state.ctx.Done()

	for !state.isDone() {
		if !state.halted && state.ctx.Err() != nil {
			state.halt()
		}
		state.schedule()

		if state.isDone() {
			break
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-done:
			state.halt()
			done = nil
		}
	}
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

// enqueue keeps the ready queue in plan order so that sequential runs follow the plan exactly.
func (state *schedulerRunState) enqueue(name string) {
	pos := state.plan.Position(name)
	i := sort.Search(len(state.ready), func(i int) bool {
		return state.plan.Position(state.ready[i]) > pos
	})
	state.ready = append(state.ready, "")
	copy(state.ready[i+1:], state.ready[i:])
	state.ready[i] = name
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && !state.halted {
		name := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.running[name] = true
		go state.executeTarget(state.targets[name])
	}
}

func (state *schedulerRunState) executeTarget(t *domain.Target) {
	// The span is ended before the result is sent so renderers see the
	// completion before the loop can return.
	res := func() (res result) {
		var opts []ports.SpanOption
		if t.Gated {
			opts = append(opts, ports.WithGated())
		}
		ctx, span := state.s.tracer.Start(state.execCtx, t.Name, opts...)
		defer span.End()

		start := time.Now()
		// A panicking gate or action fails its target instead of the process.
		defer func() {
			if r := recover(); r != nil {
				err := domain.Tag(domain.ErrTargetPanicked, "target", t.Name, "panic", fmt.Sprint(r))
				span.RecordError(err)
				res = result{target: t.Name, err: err, duration: time.Since(start)}
			}
		}()

		if t.Gate != nil {
			if err := t.Gate(ctx); err != nil {
				span.SetAttribute("gate.passed", false)
				span.RecordError(err)
				return result{target: t.Name, err: err, duration: time.Since(start)}
			}
			span.SetAttribute("gate.passed", true)
		}

		if t.Action != nil {
			if err := t.Action(ctx, span); err != nil {
				span.RecordError(err)
				return result{target: t.Name, err: err, duration: time.Since(start)}
			}
		}
		return result{target: t.Name, duration: time.Since(start)}
	}()

	state.resultsCh <- res
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--
	delete(state.running, res.target)

	if res.err != nil {
		state.record(res.target, domain.StatusFailed, res.err, res.duration)
		for _, dep := range state.plan.Dependents(res.target) {
			state.record(dep, domain.StatusSkipped, nil, 0)
		}
		if !state.continueOnError {
			state.halt()
		}
	} else {
		state.record(res.target, domain.StatusSucceeded, nil, res.duration)
	}

	state.release(res.target)
}

// release satisfies the ordering constraints of a finished target. Successors
// that were already skipped pass the release on without running.
func (state *schedulerRunState) release(name string) {
	for _, next := range state.successors[name] {
		state.inDegree[next]--
		if state.inDegree[next] != 0 {
			continue
		}
		if state.res.Status(next) == domain.StatusSkipped {
			state.release(next)
			continue
		}
		if !state.halted {
			state.enqueue(next)
		}
	}
}

// halt stops scheduling and skips every target that has not started.
func (state *schedulerRunState) halt() {
	if state.halted {
		return
	}
	state.halted = true
	state.ready = nil

	for _, name := range state.plan.Order() {
		if state.running[name] {
			continue
		}
		state.record(name, domain.StatusSkipped, nil, 0)
	}
}

func (state *schedulerRunState) record(name string, status domain.TargetStatus, err error, d time.Duration) {
	if !state.s.updateStatus(name, status) {
		return
	}
	state.res.Outcomes[name] = domain.TargetOutcome{
		Name:     name,
		Status:   status,
		Err:      err,
		Duration: d,
	}
}
