package transport

import (
	"github.com/casualjim/aione/internal/registry"
	"github.com/casualjim/aione/provider"
)

// Factory builds a transport for a provider.
type Factory func(desc provider.Descriptor) (Transport, error)

// Selector picks the transport factory for a provider id: a specialised factory when one
// is registered, the fallback otherwise.
type Selector struct {
	factories registry.Registry[Factory]
	fallback  Factory
}

// NewSelector creates a selector that uses fallback for every provider without a
// specialised factory.
func NewSelector(fallback Factory) *Selector {
	return &Selector{
		factories: registry.New[Factory](),
		fallback:  fallback,
	}
}

// Register installs a specialised factory for a provider id.
func (s *Selector) Register(providerID string, f Factory) *Selector {
	s.factories.Add(providerID, f)
	return s
}

// Specialised reports whether providerID has its own factory.
func (s *Selector) Specialised(providerID string) bool {
	_, ok := s.factories.Get(providerID)
	return ok
}

// New builds the transport for desc.
func (s *Selector) New(desc provider.Descriptor) (Transport, error) {
	if f, ok := s.factories.Get(desc.ID); ok {
		return f(desc)
	}
	if s.fallback == nil {
		return nil, &UnsupportedProviderError{Provider: desc.ID}
	}
	return s.fallback(desc)
}
