package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/messages"
	"github.com/casualjim/aione/pkg/slogx"
	"github.com/casualjim/aione/provider"
	"github.com/casualjim/aione/transport"
	"github.com/fogfish/opts"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

var (
	// WithLogger sets the logger used for request diagnostics.
	WithLogger = opts.ForName[Client, *slog.Logger]("logger")

	// WithRequestOptions adds SDK options applied to the underlying client, e.g. a custom
	// HTTP client or extra headers.
	WithRequestOptions = opts.ForName[Client, []option.RequestOption]("requestOptions")
)

var _ transport.Transport = (*Client)(nil)

// Client is the SDK-backed transport for one provider.
type Client struct {
	desc           provider.Descriptor
	client         *openai.Client
	logger         *slog.Logger
	requestOptions []option.RequestOption

	inflight transport.Inflight
}

// New creates an SDK-backed transport for desc.
func New(desc provider.Descriptor, options ...opts.Option[Client]) (*Client, error) {
	c := &Client{desc: desc}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	if c.logger == nil {
		c.logger = slog.Default().With(slogx.LoggerName("aione.transport.openai"))
	}
	c.logger = c.logger.With(slog.String("provider", desc.ID))

	// retries would outlive a cancel issued by a newer send
	base := append([]option.RequestOption{option.WithMaxRetries(0)}, c.requestOptions...)
	c.client = openai.NewClient(base...)
	return c, nil
}

// Factory returns a transport.Factory building SDK clients with the given options.
func Factory(options ...opts.Option[Client]) transport.Factory {
	return func(desc provider.Descriptor) (transport.Transport, error) {
		return New(desc, options...)
	}
}

func (c *Client) SendBuffered(ctx context.Context, history []messages.ChatMessage, cfg config.ActiveConfig) (string, error) {
	if cfg.APIKey == "" {
		return "", &transport.AuthError{Provider: c.desc.ID, Message: "API key is not configured"}
	}
	ctx, release := c.inflight.Begin(ctx)
	defer release()

	c.logger.DebugContext(ctx, "sending chat completion", slog.String("model", cfg.Model), slog.Int("messages", len(history)))
	chat, err := c.client.Chat.Completions.New(ctx, buildParams(history, cfg), c.perRequest(cfg)...)
	if err != nil {
		return "", c.mapError(ctx, err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", &transport.MalformedResponseError{
			Provider: c.desc.ID,
			Message:  "API response has no message content",
			Raw:      []byte(chat.JSON.RawJSON()),
		}
	}
	return chat.Choices[0].Message.Content, nil
}

func (c *Client) SendStreaming(ctx context.Context, history []messages.ChatMessage, cfg config.ActiveConfig, onDelta transport.DeltaFunc) error {
	if cfg.APIKey == "" {
		return &transport.AuthError{Provider: c.desc.ID, Message: "API key is not configured"}
	}
	ctx, release := c.inflight.Begin(ctx)
	defer release()

	c.logger.DebugContext(ctx, "sending streaming chat completion", slog.String("model", cfg.Model), slog.Int("messages", len(history)))
	strm := c.client.Chat.Completions.NewStreaming(ctx, buildParams(history, cfg), c.perRequest(cfg)...)
	defer strm.Close()

	for strm.Next() {
		if ctx.Err() != nil {
			break
		}
		chunk := strm.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			onDelta(delta)
		}
	}

	if ctx.Err() != nil {
		c.logger.DebugContext(ctx, "stream cancelled")
		return nil
	}
	if err := strm.Err(); err != nil {
		err = c.mapError(ctx, err)
		if transport.IsCancelled(err) {
			return nil
		}
		return err
	}
	return nil
}

func (c *Client) Cancel() {
	c.inflight.Cancel()
}

func (c *Client) perRequest(cfg config.ActiveConfig) []option.RequestOption {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if base := cfg.ResolveBaseURL(c.desc); base != "" {
		// the SDK resolves paths relative to the base, so it needs the trailing slash
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	return reqOpts
}

func (c *Client) mapError(ctx context.Context, err error) error {
	if cerr, ok := transport.Cancelled(ctx, c.desc.ID, err); ok {
		return cerr
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		raw := []byte(apiErr.JSON.RawJSON())
		msg := apiErr.Message
		if msg == "" && gjson.ValidBytes(raw) {
			msg = gjson.GetBytes(raw, "error.message").String()
		}
		c.logger.DebugContext(ctx, "chat completion rejected", slog.Int("status", apiErr.StatusCode), slogx.Error(err))
		return transport.HTTPError(c.desc.ID, apiErr.StatusCode, msg, raw)
	}

	return &transport.NetworkError{Provider: c.desc.ID, Message: fmt.Sprintf("network error: %v", err), Cause: err}
}

func buildParams(history []messages.ChatMessage, cfg config.ActiveConfig) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(toOpenAI(history)),
		Model:       openai.F(cfg.Model),
		N:           openai.Int(1),
		Temperature: openai.Float(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(cfg.MaxTokens))
	}
	return params
}

func toOpenAI(history []messages.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case messages.RoleSystem:
			result = append(result, openai.SystemMessage(m.Content))
		case messages.RoleAssistant:
			result = append(result, openai.AssistantMessage(m.Content))
		default:
			result = append(result, openai.UserMessage(m.Content))
		}
	}
	return result
}
