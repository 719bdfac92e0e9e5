package topics

import (
	"fmt"
	"sync"
	"time"
)

// Registry holds topic declarations in registration order. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	byName    map[string]Topic
	order     []string
	validator *Validator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:    make(map[string]Topic),
		validator: NewValidator(),
	}
}

// Register validates and stores a topic declaration. Declaring the same
// name twice is an error.
func (r *Registry) Register(t Topic) error {
	if err := r.validator.Validate(t); err != nil {
		return &Error{Type: ErrorValidationFailed, Topic: t.Name, Message: "validation failed", Cause: err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[t.Name]; exists {
		return &Error{Type: ErrorDuplicateRegistration, Topic: t.Name, Message: "already registered"}
	}
	t.RegisteredAt = time.Now()
	r.byName[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// MustRegister registers a topic and panics on error. Topic declarations
// happen at package init time; a failure there is a configuration error
// that should stop startup.
func (r *Registry) MustRegister(t Topic) {
	if err := r.Register(t); err != nil {
		panic(fmt.Sprintf("topics: failed to register %s: %v", t.Name, err))
	}
}

// Get returns the declaration for a topic name.
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// List returns all declarations in registration order.
func (r *Registry) List() []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Topic, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// ListByModule returns declarations owned by a module, in registration order.
func (r *Registry) ListByModule(module string) []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Topic
	for _, name := range r.order {
		if t := r.byName[name]; t.Module == module {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of registered declarations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Reset removes all declarations. Primarily for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]Topic)
	r.order = nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry used for package-level topic
// declarations. It holds documentation only, never routing state.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register declares a topic with the default registry.
func Register(t Topic) error { return Default().Register(t) }

// MustRegister declares a topic with the default registry, panicking on error.
func MustRegister(t Topic) { Default().MustRegister(t) }

// Get looks up a declaration in the default registry.
func Get(name string) (Topic, bool) { return Default().Get(name) }

// List returns all declarations in the default registry.
func List() []Topic { return Default().List() }
