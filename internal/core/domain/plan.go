package domain

import "iter"

// Plan is an ordered, duplicate-free sequence of target names in which every
// dependency precedes its dependents. A plan is created per invocation.
type Plan struct {
	order     []string
	requested []string
	position  map[string]int
	// after maps a target to the planned targets that must finish before it starts.
	after map[string][]string
	// dependents maps a target to the planned targets that declare it in DependsOn.
	dependents map[string][]string
}

// Order returns the execution order.
func (p *Plan) Order() []string {
	return cloneStrings(p.order)
}

// Requested returns the names the plan was resolved for, de-duplicated.
func (p *Plan) Requested() []string {
	return cloneStrings(p.requested)
}

// Len returns the number of planned targets.
func (p *Plan) Len() int {
	return len(p.order)
}

// Contains reports whether the target is part of the plan.
func (p *Plan) Contains(name string) bool {
	_, ok := p.position[name]
	return ok
}

// Position returns the index of the target in the execution order, or -1.
func (p *Plan) Position(name string) int {
	if i, ok := p.position[name]; ok {
		return i
	}
	return -1
}

// After returns the planned targets that must finish before name may start.
// It covers both DependsOn and RunsBefore constraints.
func (p *Plan) After(name string) []string {
	return cloneStrings(p.after[name])
}

// Dependents returns every planned target that transitively depends on name,
// in plan order. RunsBefore constraints are not followed.
func (p *Plan) Dependents(name string) []string {
	seen := make(map[string]bool)
	stack := append([]string(nil), p.dependents[name]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, p.dependents[n]...)
	}

	out := make([]string, 0, len(seen))
	for _, n := range p.order {
		if seen[n] {
			out = append(out, n)
		}
	}
	return out
}

// Walk yields target names in execution order.
func (p *Plan) Walk() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i, name := range p.order {
			if !yield(i, name) {
				return
			}
		}
	}
}
