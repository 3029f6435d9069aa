package validators

import (
	"sync"

	"github.com/BaSui01/guardflow/schema"
	"github.com/BaSui01/guardflow/types"
)

// Factory constructs a validator from its declared parameters.
type Factory func(params map[string]any) (Validator, error)

// Registry maps validator names to factories. Both the host process and the
// isolation worker construct validators from the same registry, so a
// schema.ValidatorSpec is enough to rebuild a validator on either side of the
// process boundary.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name, replacing any previous one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build constructs the validator declared by spec.
func (r *Registry) Build(spec schema.ValidatorSpec) (Validator, error) {
	r.mu.RLock()
	f, ok := r.factories[spec.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, types.NewError(types.ErrUnknownValidator, "validator not registered: "+spec.Name)
	}
	return f(spec.Params)
}

// Names returns the registered validator names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}()

// DefaultRegistry returns the process-wide registry preloaded with the
// built-in validators.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
