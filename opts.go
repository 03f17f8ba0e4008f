package aione

import (
	"fmt"
	"log/slog"

	"github.com/casualjim/aione/events"
	"github.com/casualjim/aione/transport"
	"github.com/fogfish/opts"
)

var (
	// WithHook installs the observer notified of every request lifecycle event.
	WithHook = opts.ForName[Service, events.Hook]("hook")

	// WithLogger sets the service logger.
	WithLogger = opts.ForName[Service, *slog.Logger]("logger")

	// WithSelector replaces the transport selection table entirely.
	WithSelector = opts.ForName[Service, *transport.Selector]("selector")
)

// WithTransport registers a specialised transport factory for a provider id. Providers
// without one use the generic OpenAI-compatible transport.
func WithTransport(providerID string, f transport.Factory) opts.Option[Service] {
	return opts.Type[Service](func(s *Service) error {
		if s.selector == nil {
			return fmt.Errorf("aione: cannot register a transport for %q without a selector", providerID)
		}
		s.selector.Register(providerID, f)
		return nil
	})
}

// WithHooks installs several hooks, called in order.
func WithHooks(hooks ...events.Hook) opts.Option[Service] {
	return opts.Type[Service](func(s *Service) error {
		s.hook = events.Multi(append([]events.Hook{s.hook}, hooks...)...)
		return nil
	})
}

// Option configures a Service.
type Option = opts.Option[Service]
