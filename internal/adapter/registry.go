package adapter

import (
	"fmt"
	"slices"
	"sync"

	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
)

// Factory builds a fresh adapter instance from explicit model settings.
type Factory func(settings config.ModelSettings) (ForwardModel, error)

type registration struct {
	factory  Factory
	settings config.ModelSettings
}

// Registry maps model names to adapter factories. It is filled once at
// startup and only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

// builtins are the adapter kinds compiled into the binary.
var builtins = map[string]Factory{
	ExampleName:   NewExample,
	QuadraticName: NewQuadratic,
	CommandKind:   NewCommand,
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// NewDefaultRegistry registers the built-in models under their own names
// and then every model declared in settings. A declared model with the name
// of a built-in replaces it, which is how options such as the example delay
// are tuned.
func NewDefaultRegistry(settings *config.Settings) (*Registry, error) {
	r := NewRegistry()
	r.Register(ExampleName, NewExample, config.ModelSettings{Name: ExampleName})
	r.Register(QuadraticName, NewQuadratic, config.ModelSettings{Name: QuadraticName})

	if settings == nil {
		return r, nil
	}
	for _, ms := range settings.Models {
		factory, ok := builtins[ms.AdapterKind()]
		if !ok {
			return nil, fmt.Errorf("model %s: unknown adapter kind %q", ms.Name, ms.AdapterKind())
		}
		r.Register(ms.Name, factory, ms)
	}
	return r, nil
}

// Register binds name to factory. The settings are handed to the factory on
// every Instantiate call. Registering an existing name replaces it.
func (r *Registry) Register(name string, factory Factory, settings config.ModelSettings) {
	if settings.Name == "" {
		settings.Name = name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = registration{factory: factory, settings: settings}
}

// Resolve returns the factory registered for name, bound to its settings.
func (r *Registry) Resolve(name string) (func() (ForwardModel, error), error) {
	r.mu.RLock()
	reg, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownModelError{Model: name}
	}
	return func() (ForwardModel, error) {
		return reg.factory(reg.settings)
	}, nil
}

// Instantiate resolves name and builds a new adapter instance.
func (r *Registry) Instantiate(name string) (ForwardModel, error) {
	build, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	fm, err := build()
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter for model %s: %w", name, err)
	}
	return fm, nil
}

// Settings returns the settings a model was registered with.
func (r *Registry) Settings(name string) (config.ModelSettings, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	return reg.settings, ok
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
