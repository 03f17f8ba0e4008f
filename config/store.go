package config

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/casualjim/aione/pkg/slogx"
	"github.com/casualjim/aione/provider"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// StorageKey is the key under which the configuration is persisted.
const StorageKey = "ai_config"

// KeyValue is the persistence collaborator. Get reports ok=false when the key has never
// been written.
type KeyValue interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

var (
	// WithRegistry sets the provider table used to resolve provider ids.
	WithRegistry = opts.ForName[Store, *provider.Registry]("registry")

	// WithStorageKey overrides the key the configuration is persisted under.
	WithStorageKey = opts.ForName[Store, string]("key")

	// WithLogger sets the logger used to report persistence problems.
	WithLogger = opts.ForName[Store, *slog.Logger]("logger")
)

// Store holds the active configuration and writes it through to a KeyValue after every
// mutation. It is safe for concurrent use.
//
// Persistence is best effort: a failed write is logged and the in-memory configuration
// stays authoritative. Malformed persisted data is discarded in favour of the defaults.
type Store struct {
	mu       sync.RWMutex
	kv       KeyValue
	key      string
	registry *provider.Registry
	logger   *slog.Logger
	current  ActiveConfig
}

// NewStore creates a store backed by kv and loads any previously persisted configuration.
func NewStore(kv KeyValue, options ...opts.Option[Store]) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("config: key-value store is required")
	}
	s := &Store{
		kv:       kv,
		key:      StorageKey,
		registry: provider.Builtin(),
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = slog.Default().With(slogx.LoggerName("aione.config"))
	}
	s.current = s.load()
	return s, nil
}

// Registry returns the provider table the store validates against.
func (s *Store) Registry() *provider.Registry {
	return s.registry
}

// Get returns a snapshot of the active configuration.
func (s *Store) Get() ActiveConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update merges the supplied fields into the active configuration and persists it.
//
// Switching provider without also supplying a model resets the model and base URL to the
// new provider's defaults. An unknown provider id or an invalid token limit is rejected
// and leaves the configuration unchanged.
func (s *Store) Update(u Update) error {
	if err := u.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if u.ProviderID != nil && *u.ProviderID != next.ProviderID {
		desc, err := s.registry.Lookup(*u.ProviderID)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownProvider, *u.ProviderID)
		}
		next.ProviderID = desc.ID
		if u.Model == nil {
			next.Model = desc.DefaultModel
			next.BaseURL = desc.BaseURL
		}
	}
	if u.APIKey != nil {
		next.APIKey = *u.APIKey
	}
	if u.BaseURL != nil {
		next.BaseURL = *u.BaseURL
	}
	if u.Model != nil {
		next.Model = *u.Model
	}
	if u.Temperature != nil {
		next.Temperature = clampTemperature(*u.Temperature)
	}
	if u.MaxTokens != nil {
		next.MaxTokens = *u.MaxTokens
	}
	s.current = next
	s.persist(next)
	return nil
}

// SetAPIKey updates only the API key.
func (s *Store) SetAPIKey(key string) error {
	return s.Update(Update{APIKey: &key})
}

// SetProvider switches provider, resetting model and base URL to its defaults.
func (s *Store) SetProvider(id string) error {
	return s.Update(Update{ProviderID: &id})
}

// SetModel updates only the model.
func (s *Store) SetModel(model string) error {
	return s.Update(Update{Model: &model})
}

// IsConfigured reports whether a send can be attempted: an API key is present and the
// provider id resolves.
func (s *Store) IsConfigured() bool {
	cfg := s.Get()
	return cfg.APIKey != "" && s.registry.Has(cfg.ProviderID)
}

// CurrentProvider returns the descriptor of the selected provider.
func (s *Store) CurrentProvider() (provider.Descriptor, bool) {
	desc, err := s.registry.Lookup(s.Get().ProviderID)
	if err != nil {
		return provider.Descriptor{}, false
	}
	return desc, true
}

// AvailableModels returns the model catalog of the selected provider.
func (s *Store) AvailableModels() []string {
	desc, ok := s.CurrentProvider()
	if !ok {
		return nil
	}
	return desc.Models
}

// Reset restores the built-in defaults and persists them.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Default()
	s.persist(s.current)
}

// Reload replaces the in-memory configuration with what the backing store holds.
// It is meant for backends that can be changed by another process.
func (s *Store) Reload() ActiveConfig {
	cfg := s.load()
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return cfg
}

// Schema describes the persisted configuration object, for settings forms.
func (s *Store) Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return r.Reflect(ActiveConfig{})
}

func (s *Store) load() ActiveConfig {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Warn("failed to load configuration, using defaults", slogx.Error(err))
		return Default()
	}
	if !ok || raw == "" {
		return Default()
	}

	cfg := Default()
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.logger.Debug("discarding malformed configuration", slogx.Error(err))
		return Default()
	}
	if !s.registry.Has(cfg.ProviderID) {
		s.logger.Debug("discarding configuration with unknown provider", slog.String("provider", cfg.ProviderID))
		return Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	cfg.Temperature = clampTemperature(cfg.Temperature)
	return cfg
}

// persist must be called with mu held so writes reach the store in mutation order.
func (s *Store) persist(cfg ActiveConfig) {
	b, err := json.Marshal(cfg)
	if err != nil {
		s.logger.Warn("failed to encode configuration", slogx.Error(err))
		return
	}
	if err := s.kv.Set(s.key, string(b)); err != nil {
		s.logger.Warn("failed to persist configuration", slogx.Error(err), slog.String("key", s.key))
	}
}
