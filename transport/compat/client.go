package compat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/messages"
	"github.com/casualjim/aione/pkg/slogx"
	"github.com/casualjim/aione/pkg/sse"
	"github.com/casualjim/aione/provider"
	"github.com/casualjim/aione/transport"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	chatCompletionsPath = "/chat/completions"
	maxErrorBody        = 1 << 20
)

var (
	// WithHTTPClient replaces the HTTP client, e.g. to add a timeout or a proxy.
	WithHTTPClient = opts.ForName[Client, *http.Client]("httpClient")

	// WithLogger sets the logger used for request diagnostics.
	WithLogger = opts.ForName[Client, *slog.Logger]("logger")

	// WithRateLimiter paces outgoing requests. Waiting honours cancellation.
	WithRateLimiter = opts.ForName[Client, *rate.Limiter]("limiter")
)

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) opts.Option[Client] {
	return opts.Type[Client](func(c *Client) error {
		if c.headers == nil {
			c.headers = make(http.Header)
		}
		c.headers.Add(key, value)
		return nil
	})
}

var _ transport.Transport = (*Client)(nil)

// Client talks to one OpenAI-compatible provider.
type Client struct {
	desc       provider.Descriptor
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	headers    http.Header

	inflight transport.Inflight
}

// New creates a client for the provider described by desc.
func New(desc provider.Descriptor, options ...opts.Option[Client]) (*Client, error) {
	c := &Client{
		desc:       desc,
		httpClient: http.DefaultClient,
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	if c.logger == nil {
		c.logger = slog.Default().With(slogx.LoggerName("aione.transport.compat"))
	}
	c.logger = c.logger.With(slog.String("provider", desc.ID))
	return c, nil
}

// Factory returns a transport.Factory building compat clients with the given options.
func Factory(options ...opts.Option[Client]) transport.Factory {
	return func(desc provider.Descriptor) (transport.Transport, error) {
		return New(desc, options...)
	}
}

func (c *Client) SendBuffered(ctx context.Context, history []messages.ChatMessage, cfg config.ActiveConfig) (string, error) {
	ctx, release := c.inflight.Begin(ctx)
	defer release()

	resp, err := c.do(ctx, history, cfg, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.transportError(ctx, err)
	}
	if !gjson.ValidBytes(raw) {
		return "", &transport.MalformedResponseError{Provider: c.desc.ID, Message: "API returned malformed data", Raw: raw}
	}
	content := gjson.GetBytes(raw, contentPath)
	if content.Type != gjson.String || content.Str == "" {
		return "", &transport.MalformedResponseError{Provider: c.desc.ID, Message: "API response has no message content", Raw: raw}
	}
	return content.Str, nil
}

func (c *Client) SendStreaming(ctx context.Context, history []messages.ChatMessage, cfg config.ActiveConfig, onDelta transport.DeltaFunc) error {
	ctx, release := c.inflight.Begin(ctx)
	defer release()

	resp, err := c.do(ctx, history, cfg, true)
	if err != nil {
		if transport.IsCancelled(err) {
			return nil
		}
		return err
	}
	defer resp.Body.Close()

	if err := sse.Decode(ctx, resp.Body, onDelta); err != nil {
		if _, ok := transport.Cancelled(ctx, c.desc.ID, err); ok {
			c.logger.DebugContext(ctx, "stream cancelled")
			return nil
		}
		return &transport.NetworkError{Provider: c.desc.ID, Message: fmt.Sprintf("stream interrupted: %v", err), Cause: err}
	}
	return nil
}

func (c *Client) Cancel() {
	c.inflight.Cancel()
}

// do sends the request and returns the response of a 2xx reply; any other status is
// turned into an error.
func (c *Client) do(ctx context.Context, history []messages.ChatMessage, cfg config.ActiveConfig, stream bool) (*http.Response, error) {
	if cfg.APIKey == "" {
		return nil, &transport.AuthError{Provider: c.desc.ID, Message: "API key is not configured"}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.transportError(ctx, err)
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:       cfg.Model,
		Messages:    toWire(history),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimRight(cfg.ResolveBaseURL(c.desc), "/") + chatCompletionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &transport.NetworkError{Provider: c.desc.ID, Message: fmt.Sprintf("invalid endpoint %q", endpoint), Cause: err}
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	c.logger.DebugContext(ctx, "sending chat completion",
		slog.String("url", endpoint),
		slog.String("model", cfg.Model),
		slog.Bool("stream", stream),
		slog.Int("messages", len(history)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var detail string
		if msg := gjson.GetBytes(raw, errorMessagePath); gjson.ValidBytes(raw) && msg.Type == gjson.String {
			detail = msg.Str
		}
		c.logger.DebugContext(ctx, "chat completion rejected", slog.Int("status", resp.StatusCode))
		return nil, transport.HTTPError(c.desc.ID, resp.StatusCode, detail, raw)
	}
	return resp, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if cerr, ok := transport.Cancelled(ctx, c.desc.ID, err); ok {
		return cerr
	}
	return &transport.NetworkError{Provider: c.desc.ID, Message: fmt.Sprintf("network error: %v", err), Cause: err}
}
