package domain

import (
	"strings"
	"sync"
	"unicode"
)

// ReservedTargetName cannot be used for a target.
const ReservedTargetName = "all"

// Registry holds target definitions in registration order.
// It is built once, sealed, and read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	sealed  bool
	targets map[string]*Target
	order   []string
	index   map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[string]*Target),
		index:   make(map[string]int),
	}
}

// Register adds a target to the registry.
// The registry keeps its own copy of the target and its slices.
func (r *Registry) Register(t Target) error {
	if err := ValidateTargetName(t.Name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return Tag(ErrRegistrySealed, "target", t.Name)
	}
	if _, exists := r.targets[t.Name]; exists {
		return Tag(ErrDuplicateTarget, "target", t.Name)
	}

	t.DependsOn = cloneStrings(t.DependsOn)
	t.RunsBefore = cloneStrings(t.RunsBefore)
	t.Command = cloneStrings(t.Command)
	if t.Environment != nil {
		env := make(map[string]string, len(t.Environment))
		for k, v := range t.Environment {
			env[k] = v
		}
		t.Environment = env
	}

	r.index[t.Name] = len(r.order)
	r.order = append(r.order, t.Name)
	r.targets[t.Name] = &t
	return nil
}

// Seal validates every reference and freezes the registry.
// Sealing twice is a no-op.
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil
	}

	for _, name := range r.order {
		t := r.targets[name]
		for _, dep := range t.DependsOn {
			if _, ok := r.targets[dep]; !ok {
				return Tag(ErrUnknownTarget, "target", name, "reference", dep)
			}
		}
		for _, next := range t.RunsBefore {
			if _, ok := r.targets[next]; !ok {
				return Tag(ErrUnknownTarget, "target", name, "reference", next)
			}
		}
	}

	r.sealed = true
	return nil
}

// Sealed reports whether Seal has completed successfully.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup returns the target with the given name.
func (r *Registry) Lookup(name string) (*Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.targets[name]
	if !ok {
		return nil, Tag(ErrUnknownTarget, "target", name)
	}
	return t, nil
}

// Names returns all target names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneStrings(r.order)
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ValidateTargetName checks that a name is usable as a target identifier.
func ValidateTargetName(name string) error {
	if name == "" {
		return Tag(ErrInvalidTargetName, "reason", "empty name")
	}
	if name == ReservedTargetName {
		return Tag(ErrReservedTargetName, "target", name)
	}
	if strings.ContainsRune(name, ':') {
		return Tag(ErrInvalidTargetName, "target", name, "invalid_character", ":")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return Tag(ErrInvalidTargetName, "target", name, "invalid_character", "whitespace")
	}
	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
