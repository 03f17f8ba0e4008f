package provider

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrNotFound is returned by Lookup for ids that are not registered.
var ErrNotFound = errors.New("provider not found")

// Registry is a static, ordered table of provider descriptors.
// It is safe for concurrent use because it is never mutated after construction.
type Registry struct {
	entries *orderedmap.OrderedMap[string, Descriptor]
}

var builtin = NewRegistry(builtins...)

// Builtin returns the registry with the providers the client ships with.
func Builtin() *Registry {
	return builtin
}

// NewRegistry creates a registry from the given descriptors, preserving their order.
// When an id is repeated the last descriptor wins but keeps the first position.
func NewRegistry(descriptors ...Descriptor) *Registry {
	entries := orderedmap.New[string, Descriptor](len(descriptors))
	for _, d := range descriptors {
		entries.Set(d.ID, d.clone())
	}
	return &Registry{entries: entries}
}

// Lookup returns the descriptor registered under id.
func (r *Registry) Lookup(id string) (Descriptor, error) {
	d, ok := r.entries.Get(id)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return d.clone(), nil
}

// Has reports whether id resolves to a descriptor.
func (r *Registry) Has(id string) bool {
	_, ok := r.entries.Get(id)
	return ok
}

// All returns every descriptor in registration order.
func (r *Registry) All() []Descriptor {
	result := make([]Descriptor, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value.clone())
	}
	return result
}

// IDs returns the registered provider ids in registration order.
func (r *Registry) IDs() []string {
	result := make([]string, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Key)
	}
	return result
}
