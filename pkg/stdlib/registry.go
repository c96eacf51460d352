// Package stdlib provides the native functions bound in every Cookbook
// session's global environment.
package stdlib

import (
	"sort"

	"github.com/thomasrohde/cookbook/pkg/evaluator"
)

// Registry holds registered native functions by name.
type Registry struct {
	fns map[string]*evaluator.Native
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*evaluator.Native),
	}
}

// Register adds a native to the registry, replacing any native of the same
// name.
func (r *Registry) Register(fn *evaluator.Native) {
	r.fns[fn.Name()] = fn
}

// Get retrieves a native by name.
func (r *Registry) Get(name string) *evaluator.Native {
	return r.fns[name]
}

// All returns all registered natives.
func (r *Registry) All() map[string]*evaluator.Native {
	return r.fns
}

// Natives returns the registered natives sorted by name, ready for
// evaluator.ExecOptions.
func (r *Registry) Natives() []*evaluator.Native {
	out := make([]*evaluator.Native, 0, len(r.fns))
	for _, fn := range r.fns {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Defaults returns the natives every session starts with.
func Defaults() []*evaluator.Native {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Natives()
}
