// Command aione is a terminal chat client for OpenAI-compatible providers.
//
// Usage:
//
//	aione [-config aione.toml] [-stream=false]
//
// The API key is read from the persisted configuration, or from $AIONE_API_KEY on first
// run. A .env file in the working directory is loaded automatically.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/casualjim/aione"
	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/events"
	"github.com/casualjim/aione/internal/bootstrap"
	"github.com/casualjim/aione/internal/broker"
	"github.com/casualjim/aione/pkg/natsx"
	"github.com/casualjim/aione/pkg/slogx"
	"github.com/nats-io/nats.go"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
)

const envAPIKey = "AIONE_API_KEY"

func setupLogging(level slog.Level) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: level}),
	))
}

func main() {
	configPath := flag.String("config", "", "bootstrap file (.toml or .yaml)")
	stream := flag.Bool("stream", true, "stream replies as they are generated")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *stream); err != nil {
		fmt.Fprintln(os.Stderr, "aione:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, stream bool) error {
	boot, err := bootstrap.Load(configPath)
	if err != nil {
		return err
	}
	level, _ := boot.LogLevel()
	setupLogging(level)
	logger := slog.Default().With(slogx.LoggerName("aione.cmd"))

	var nc *nats.Conn
	if boot.NeedsNATS() {
		nc, err = natsx.NewClient(boot.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer nc.Close()
	}

	storage, err := bootstrap.OpenStorage(ctx, boot.Storage, nc)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Warn("failed to close storage", slogx.Error(err))
		}
	}()

	store, err := config.NewStore(storage.KV)
	if err != nil {
		return err
	}
	if key := os.Getenv(envAPIKey); key != "" && !store.IsConfigured() {
		if err := store.SetAPIKey(key); err != nil {
			return err
		}
	}

	options := []aione.Option{aione.WithSelector(bootstrap.Selector(boot.Transport, slog.Default()))}
	topic, err := bootstrap.EventsTopic(ctx, boot.Events, nc)
	if err != nil {
		return err
	}
	if topic != nil {
		options = append(options, aione.WithHook(broker.NewPublishingHook(topic, slog.Default())))
		if boot.Events.Broker == "local" {
			sub, err := topic.Subscribe(ctx, &logHook{logger: logger})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()
		}
	}

	svc, err := aione.New(store, options...)
	if err != nil {
		return err
	}

	if storage.Watcher != nil {
		go func() {
			err := storage.Watcher.Watch(ctx, config.StorageKey, func() {
				cfg := store.Reload()
				svc.UpdateConfig()
				logger.Info("configuration reloaded", slog.Any("config", cfg))
			})
			if err != nil {
				logger.Warn("configuration watch stopped", slogx.Error(err))
			}
		}()
	}

	r, err := newREPL(store, svc, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	r.stream = stream
	return r.Run(ctx)
}

// logHook writes lifecycle events to the debug log.
type logHook struct {
	events.NoopHook
	logger *slog.Logger
}

func (h *logHook) OnRequest(ctx context.Context, evt events.Request) {
	h.logger.DebugContext(ctx, "request started", slogx.RequestID(evt.RequestID), slog.String("model", evt.Model), slog.Bool("stream", evt.Stream))
}

func (h *logHook) OnResponse(ctx context.Context, evt events.Response) {
	h.logger.DebugContext(ctx, "request completed", slogx.RequestID(evt.RequestID), slog.Int("length", len(evt.Content)))
}

func (h *logHook) OnError(ctx context.Context, evt events.Error) {
	h.logger.DebugContext(ctx, "request failed", slogx.RequestID(evt.RequestID), slogx.Error(evt.Err))
}
