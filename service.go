package aione

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/events"
	"github.com/casualjim/aione/internal/registry"
	"github.com/casualjim/aione/messages"
	"github.com/casualjim/aione/pkg/slogx"
	"github.com/casualjim/aione/pkg/uuidx"
	"github.com/casualjim/aione/provider"
	"github.com/casualjim/aione/transport"
	"github.com/casualjim/aione/transport/compat"
	"github.com/casualjim/aione/transport/openai"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// ConfigSource is the read side of the configuration store the service dispatches with.
// *config.Store implements it.
type ConfigSource interface {
	Get() config.ActiveConfig
	IsConfigured() bool
	Registry() *provider.Registry
}

// ChunkFunc receives one streamed content increment.
type ChunkFunc func(delta string)

// ErrorFunc receives the message of a failed streaming send.
type ErrorFunc func(message string)

// Service dispatches conversations to the provider selected in the configuration.
//
// At most one request is outstanding per Service: starting a send cancels the previous
// one, and a superseded stream never delivers another chunk once the newer send has
// started. Chunk callbacks run on the sending goroutine and must not start another send
// on the same Service.
type Service struct {
	store    ConfigSource
	selector *transport.Selector
	hook     events.Hook
	logger   *slog.Logger

	transports registry.Registry[transport.Transport]

	// emit serialises chunk delivery against the start of a newer send.
	emit sync.Mutex

	mu     sync.Mutex
	gen    atomic.Uint64
	cancel context.CancelFunc
	active transport.Transport
	state  atomicState
}

// DefaultSelector uses the openai-go SDK for openai and the generic OpenAI-compatible HTTP
// client for every other provider.
func DefaultSelector() *transport.Selector {
	return transport.NewSelector(compat.Factory()).
		Register(provider.OpenAI, openai.Factory())
}

// New creates a dispatch service reading its configuration from store.
func New(store ConfigSource, options ...opts.Option[Service]) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("aione: config store is required")
	}
	s := &Service{
		store:      store,
		selector:   DefaultSelector(),
		transports: registry.New[transport.Transport](),
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}
	if s.selector == nil {
		return nil, fmt.Errorf("aione: transport selector is required")
	}
	if s.hook == nil {
		s.hook = events.NoopHook{}
	}
	if s.logger == nil {
		s.logger = slog.Default().With(slogx.LoggerName("aione"))
	}
	return s, nil
}

// SendMessage sends the conversation and waits for the complete reply.
func (s *Service) SendMessage(ctx context.Context, history []messages.ChatMessage) ChatResponse {
	call, resp, ok := s.prepare(ctx, history, false)
	if !ok {
		return resp
	}
	defer call.finish()

	content, err := call.transport.SendBuffered(call.ctx, history, call.cfg)
	if call.superseded() || transport.IsCancelled(err) {
		call.cancelled()
		return ChatResponse{Cancelled: true}
	}
	if err != nil {
		msg := call.failed(err)
		return ChatResponse{IsError: true, ErrorMessage: msg}
	}

	call.succeeded(content)
	return ChatResponse{Content: content}
}

// SendMessageStream sends the conversation and delivers the reply incrementally through
// onChunk. Failures are reported through onError; cancellation is silent.
func (s *Service) SendMessageStream(ctx context.Context, history []messages.ChatMessage, onChunk ChunkFunc, onError ErrorFunc) {
	if onChunk == nil {
		onChunk = func(string) {}
	}
	if onError == nil {
		onError = func(string) {}
	}

	call, resp, ok := s.prepare(ctx, history, true)
	if !ok {
		onError(resp.ErrorMessage)
		return
	}
	defer call.finish()

	var content strings.Builder
	err := call.transport.SendStreaming(call.ctx, history, call.cfg, func(delta string) {
		s.emit.Lock()
		defer s.emit.Unlock()
		if call.superseded() {
			return
		}
		content.WriteString(delta)
		s.hook.OnChunk(call.ctx, events.Chunk{
			RequestID: call.id,
			Delta:     delta,
			Timestamp: strfmt.DateTime(time.Now()),
		})
		onChunk(delta)
	})

	if call.superseded() || transport.IsCancelled(err) {
		call.cancelled()
		return
	}
	if err != nil {
		onError(call.failed(err))
		return
	}
	call.succeeded(content.String())
}

// CancelRequest aborts the outstanding send, if any.
func (s *Service) CancelRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.gen.Add(1)
	s.cancel()
	s.cancel = nil
	if s.active != nil {
		s.active.Cancel()
		s.active = nil
	}
	s.state.Store(StateCancelled)
	s.logger.Debug("request cancelled")
}

// UpdateConfig drops cached transports so the next send picks up the current
// configuration. It does not affect a send that is already running.
func (s *Service) UpdateConfig() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transports.Clear()
	s.logger.Debug("configuration changed, transports invalidated", slog.Any("config", s.store.Get()))
}

// IsReady reports whether a send would be attempted with the current configuration.
func (s *Service) IsReady() bool {
	if !s.store.IsConfigured() {
		return false
	}
	return s.store.Registry().Has(s.store.Get().ProviderID)
}

// State returns the dispatch state.
func (s *Service) State() State {
	return s.state.Load()
}

// IsLoading reports whether a send is outstanding.
func (s *Service) IsLoading() bool {
	return s.State() == StateSending
}

// prepare validates the request, resolves the transport and claims the in-flight slot.
// When ok is false the returned response describes why nothing was sent.
func (s *Service) prepare(ctx context.Context, history []messages.ChatMessage, stream bool) (*call, ChatResponse, bool) {
	if !s.store.IsConfigured() {
		s.logger.WarnContext(ctx, "refusing to send, api key is not configured")
		return nil, ChatResponse{IsError: true, ErrorMessage: ErrNotConfiguredMessage}, false
	}
	if err := messages.Validate(history); err != nil {
		return nil, ChatResponse{IsError: true, ErrorMessage: err.Error()}, false
	}

	cfg := s.store.Get()
	tr, err := s.transportFor(cfg.ProviderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "no transport for provider", slog.String("provider", cfg.ProviderID), slogx.Error(err))
		return nil, ChatResponse{IsError: true, ErrorMessage: errorMessage(err)}, false
	}

	c := s.start(ctx, tr, cfg)
	s.hook.OnRequest(c.ctx, events.Request{
		RequestID: c.id,
		Provider:  cfg.ProviderID,
		Model:     cfg.Model,
		Stream:    stream,
		Messages:  len(history),
		Timestamp: strfmt.DateTime(time.Now()),
	})
	c.logger.DebugContext(c.ctx, "sending message", slog.Bool("stream", stream), slog.Int("messages", len(history)))
	return c, ChatResponse{}, true
}

// start cancels the outstanding send and makes a new call current.
func (s *Service) start(ctx context.Context, tr transport.Transport, cfg config.ActiveConfig) *call {
	// holding emit guarantees no chunk of the previous call is being delivered
	s.emit.Lock()
	defer s.emit.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		if s.active != nil {
			s.active.Cancel()
		}
		s.logger.DebugContext(ctx, "superseding outstanding request")
	}

	ctx, cancel := context.WithCancel(ctx)
	gen := s.gen.Add(1)
	s.cancel = cancel
	s.active = tr
	s.state.Store(StateSending)

	id := uuidx.New()
	return &call{
		svc:       s,
		ctx:       ctx,
		cancel:    cancel,
		gen:       gen,
		id:        id,
		cfg:       cfg,
		transport: tr,
		logger:    s.logger.With(slogx.RequestID(id), slog.String("provider", cfg.ProviderID)),
	}
}

func (s *Service) transportFor(providerID string) (transport.Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tr, ok := s.transports.Get(providerID); ok {
		return tr, nil
	}
	desc, err := s.store.Registry().Lookup(providerID)
	if err != nil {
		return nil, &transport.UnsupportedProviderError{Provider: providerID}
	}
	tr, err := s.selector.New(desc)
	if err != nil {
		return nil, err
	}
	s.transports.Add(providerID, tr)
	return tr, nil
}

// call is one send occupying the in-flight slot.
type call struct {
	svc       *Service
	ctx       context.Context
	cancel    context.CancelFunc
	gen       uint64
	id        uuid.UUID
	cfg       config.ActiveConfig
	transport transport.Transport
	logger    *slog.Logger
}

func (c *call) superseded() bool {
	return c.svc.gen.Load() != c.gen || c.ctx.Err() != nil
}

// finish releases the in-flight slot if this call still owns it.
func (c *call) finish() {
	c.cancel()

	s := c.svc
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Load() == c.gen {
		s.cancel = nil
		s.active = nil
		s.state.Store(StateIdle)
	}
}

func (c *call) cancelled() {
	c.logger.DebugContext(c.ctx, "request was cancelled")
	c.svc.hook.OnCancel(context.WithoutCancel(c.ctx), c.id)
}

func (c *call) failed(err error) string {
	msg := errorMessage(err)
	c.logger.ErrorContext(c.ctx, "request failed", slogx.Error(err))
	c.svc.hook.OnError(c.ctx, events.Error{
		RequestID: c.id,
		Provider:  c.cfg.ProviderID,
		Err:       err,
		Timestamp: strfmt.DateTime(time.Now()),
	})
	return msg
}

func (c *call) succeeded(content string) {
	c.logger.DebugContext(c.ctx, "request completed", slog.Int("length", len(content)))
	c.svc.hook.OnResponse(c.ctx, events.Response{
		RequestID: c.id,
		Provider:  c.cfg.ProviderID,
		Model:     c.cfg.Model,
		Content:   content,
		Timestamp: strfmt.DateTime(time.Now()),
	})
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackErrorMessage
}
