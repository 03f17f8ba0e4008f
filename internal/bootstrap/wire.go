package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/internal/broker"
	"github.com/casualjim/aione/kvstore"
	"github.com/casualjim/aione/provider"
	"github.com/casualjim/aione/transport"
	"github.com/casualjim/aione/transport/compat"
	"github.com/casualjim/aione/transport/openai"
	"github.com/fogfish/opts"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

const sqliteFile = "aione.db"

// Watcher is implemented by backends that can report external changes to a key.
type Watcher interface {
	Watch(ctx context.Context, key string, onChange func()) error
}

// Storage is the opened key-value backend.
type Storage struct {
	KV config.KeyValue
	// Watcher is nil when the backend cannot report changes or watching is disabled.
	Watcher Watcher
	close   func() error
}

func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage opens the configured backend. nc is only used by the nats backend.
func OpenStorage(ctx context.Context, cfg StorageConfig, nc *nats.Conn) (*Storage, error) {
	var st Storage
	switch cfg.Backend {
	case BackendMemory:
		st.KV = kvstore.NewMemory()
	case BackendFile:
		f, err := kvstore.NewFile(cfg.Dir)
		if err != nil {
			return nil, err
		}
		st.KV, st.Watcher = f, f
	case BackendSQLite:
		db, err := kvstore.OpenSQLite(ctx, filepath.Join(cfg.Dir, sqliteFile))
		if err != nil {
			return nil, err
		}
		st.KV, st.close = db, db.Close
	case BackendNATS:
		if nc == nil {
			return nil, fmt.Errorf("bootstrap: the nats backend needs a connection")
		}
		kv, err := kvstore.OpenNATS(ctx, nc, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		st.KV, st.Watcher = kv, kv
	default:
		return nil, fmt.Errorf("bootstrap: unknown storage backend %q", cfg.Backend)
	}
	if !cfg.Watch {
		st.Watcher = nil
	}
	return &st, nil
}

// Selector builds the transport selection table: the SDK transport for openai, the
// OpenAI-compatible HTTP transport for everything else, both sharing one HTTP client and
// rate limiter.
func Selector(cfg TransportConfig, logger *slog.Logger) *transport.Selector {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	compatOpts := []opts.Option[compat.Client]{
		compat.WithHTTPClient(httpClient),
		compat.WithLogger(logger),
	}
	if cfg.RequestsPerSecond > 0 {
		compatOpts = append(compatOpts, compat.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))))
	}

	return transport.NewSelector(compat.Factory(compatOpts...)).
		Register(provider.OpenAI, openai.Factory(
			openai.WithLogger(logger),
			openai.WithRequestOptions([]option.RequestOption{option.WithHTTPClient(httpClient)}),
		))
}

// EventsTopic returns the topic request events are published to, or nil when publishing
// is disabled.
func EventsTopic(ctx context.Context, cfg EventsConfig, nc *nats.Conn) (broker.Topic, error) {
	var b broker.Broker
	switch cfg.Broker {
	case "":
		return nil, nil
	case "local":
		b = broker.Local()
	case "nats":
		if nc == nil {
			return nil, fmt.Errorf("bootstrap: the nats broker needs a connection")
		}
		b = broker.NATS(nc)
	default:
		return nil, fmt.Errorf("bootstrap: unknown events broker %q", cfg.Broker)
	}
	return b.Topic(ctx, cfg.Topic), nil
}
