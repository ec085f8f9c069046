// Package domain contains the core domain models and business logic for the target graph
// and the branch merge policy.
package domain

import (
	"container/heap"
	"strings"
)

// Resolve expands the requested targets into a single execution plan.
//
// The plan holds the DependsOn closure of the requested targets. RunsBefore
// declarations only order targets that are already part of that closure.
// Independent targets keep their registration order.
func (r *Registry) Resolve(requested ...string) (*Plan, error) {
	if len(requested) == 0 {
		return nil, ErrNoTargetsSpecified
	}
	if !r.Sealed() {
		return nil, ErrRegistryNotSealed
	}

	roots := make([]string, 0, len(requested))
	seenRoot := make(map[string]bool, len(requested))
	for _, name := range requested {
		if _, err := r.Lookup(name); err != nil {
			return nil, err
		}
		if seenRoot[name] {
			continue
		}
		seenRoot[name] = true
		roots = append(roots, name)
	}

	if err := r.detectCycles(); err != nil {
		return nil, err
	}

	closure := r.closure(roots)
	plan := &Plan{
		requested:  roots,
		position:   make(map[string]int, len(closure)),
		after:      make(map[string][]string, len(closure)),
		dependents: make(map[string][]string, len(closure)),
	}

	successors := make(map[string][]string, len(closure))
	inDegree := make(map[string]int, len(closure))
	for _, name := range r.order {
		if !closure[name] {
			continue
		}
		t := r.targets[name]
		for _, dep := range t.DependsOn {
			plan.addEdge(dep, name, successors, inDegree)
			plan.dependents[dep] = appendUnique(plan.dependents[dep], name)
		}
		for _, next := range t.RunsBefore {
			if closure[next] {
				plan.addEdge(name, next, successors, inDegree)
			}
		}
	}

	ready := &indexHeap{index: r.index}
	for _, name := range r.order {
		if closure[name] && inDegree[name] == 0 {
			heap.Push(ready, name)
		}
	}

	plan.order = make([]string, 0, len(closure))
	for ready.Len() > 0 {
		name := heap.Pop(ready).(string)
		plan.position[name] = len(plan.order)
		plan.order = append(plan.order, name)
		for _, next := range successors[name] {
			inDegree[next]--
			if inDegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	return plan, nil
}

func (p *Plan) addEdge(from, to string, successors map[string][]string, inDegree map[string]int) {
	for _, existing := range p.after[to] {
		if existing == from {
			return
		}
	}
	p.after[to] = append(p.after[to], from)
	successors[from] = append(successors[from], to)
	inDegree[to]++
}

// closure collects the requested targets and everything they transitively depend on.
func (r *Registry) closure(roots []string) map[string]bool {
	in := make(map[string]bool)
	stack := append([]string(nil), roots...)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if in[name] {
			continue
		}
		in[name] = true
		stack = append(stack, r.targets[name].DependsOn...)
	}
	return in
}

// detectCycles walks the whole registry so that a cycle anywhere is reported,
// even outside the requested closure.
func (r *Registry) detectCycles() error {
	// waitsOn maps a target to every target that has to run before it.
	waitsOn := make(map[string][]string, len(r.order))
	for _, name := range r.order {
		t := r.targets[name]
		waitsOn[name] = append(waitsOn[name], t.DependsOn...)
		for _, next := range t.RunsBefore {
			waitsOn[next] = append(waitsOn[next], name)
		}
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(r.order))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = visiting
		path = append(path, name)

		for _, dep := range waitsOn[name] {
			switch state[dep] {
			case visiting:
				return buildCycleError(path, dep)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[name] = visited
		path = path[:len(path)-1]
		return nil
	}

	for _, name := range r.order {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []string, dep string) error {
	start := 0
	for i, node := range path {
		if node == dep {
			start = i
			break
		}
	}
	members := cloneStrings(path[start:])
	cycle := strings.Join(append(cloneStrings(members), dep), " -> ")
	return Tag(ErrCyclicDependency, "cycle", cycle, "members", members)
}

func appendUnique(s []string, v string) []string {
	for _, existing := range s {
		if existing == v {
			return s
		}
	}
	return append(s, v)
}

// indexHeap is a min-heap of target names keyed by registration index.
type indexHeap struct {
	names []string
	index map[string]int
}

func (h *indexHeap) Len() int           { return len(h.names) }
func (h *indexHeap) Less(i, j int) bool { return h.index[h.names[i]] < h.index[h.names[j]] }
func (h *indexHeap) Swap(i, j int)      { h.names[i], h.names[j] = h.names[j], h.names[i] }
func (h *indexHeap) Push(x any)         { h.names = append(h.names, x.(string)) }

func (h *indexHeap) Pop() any {
	n := len(h.names)
	x := h.names[n-1]
	h.names = h.names[:n-1]
	return x
}
