package predict

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEngineUnavailable is returned when a request names an engine variant
// that was not loaded at startup.
var ErrEngineUnavailable = errors.New("engine unavailable")

// Registry holds the engine variants loaded at startup. It is populated once
// during initialization and read-only afterwards, so lookups need no locking.
type Registry struct {
	engines     map[string]Engine
	defaultName string
}

// NewRegistry creates a registry whose empty-name lookups resolve to
// defaultName.
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		engines:     make(map[string]Engine),
		defaultName: defaultName,
	}
}

// Register adds an engine under its own name.
func (r *Registry) Register(engine Engine) {
	r.engines[engine.Name()] = engine
}

// Lookup reports whether an engine with the given name is loaded, without
// treating absence as an error.
func (r *Registry) Lookup(name string) (Engine, bool) {
	engine, ok := r.engines[name]
	return engine, ok
}

// Get resolves a request's engine selection. An empty name selects the
// default variant. Unknown or unloaded names fail with ErrEngineUnavailable.
func (r *Registry) Get(name string) (Engine, error) {
	if name == "" {
		name = r.defaultName
	}
	engine, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEngineUnavailable, name)
	}
	return engine, nil
}

// Names lists the loaded engine variants in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
