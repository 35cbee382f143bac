// Package registry maps backend names from the config file to constructors.
package registry

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Factory builds a T from the free-form "data" block of a config section.
type Factory[T any] func(args interface{}) (T, error)

// Registry is safe for concurrent use. Names are matched case-insensitively.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// New returns an empty registry. kind names the thing being built in errors,
// e.g. "file store".
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, factories: map[string]Factory[T]{}}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register ignores blank names and nil factories. A later call with the same
// name wins.
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	key := normalize(name)
	if key == "" || factory == nil {
		return
	}
	r.mu.Lock()
	r.factories[key] = factory
	r.mu.Unlock()
}

func (r *Registry[T]) Build(name string, args interface{}) (T, error) {
	var zero T
	key := normalize(name)
	if key == "" {
		return zero, fmt.Errorf("%s type is required", r.kind)
	}
	r.mu.RLock()
	factory := r.factories[key]
	r.mu.RUnlock()
	if factory == nil {
		return zero, fmt.Errorf("unsupported %s: %s", r.kind, name)
	}
	return factory(args)
}

// Names lists registered backends in no particular order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	return out
}

// Decode copies a loosely typed config block into dst by way of JSON, so
// dst's json tags apply.
func Decode(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
