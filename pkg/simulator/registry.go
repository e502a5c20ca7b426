package simulator

import (
	"fmt"
	"sort"
	"sync"
)

// Options configure a backend instance.
type Options struct {
	// Python is the interpreter with the simulation library installed.
	Python string
	// Script overrides the embedded driver script.
	Script string
	// OutputDir is the parent directory for per-run output directories.
	OutputDir string
	// Env is appended to the process environment.
	Env []string
}

// Factory builds a backend from options.
type Factory func(opts Options) Simulator

// Registry manages available simulator backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Factory
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Factory),
	}
}

// Register adds a backend to the registry.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("simulator backend %s already registered", name)
	}

	r.backends[name] = factory
	return nil
}

// Get returns a new instance of the requested backend.
func (r *Registry) Get(name string, opts Options) (Simulator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.backends[name]
	if !exists {
		return nil, fmt.Errorf("simulator backend %s not found", name)
	}

	return factory(opts), nil
}

// List returns all registered backend names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global backend registry.
var DefaultRegistry = NewRegistry()

func init() {
	_ = DefaultRegistry.Register(BackendPyvectorial, NewProcess)
	_ = DefaultRegistry.Register(BackendDryRun, NewDryRun)
}
