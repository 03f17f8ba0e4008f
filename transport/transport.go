package transport

import (
	"context"

	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/messages"
)

// DeltaFunc receives one decoded text increment of a streaming response.
type DeltaFunc func(delta string)

// Transport sends a conversation to a chat-completion provider.
//
// The context is the cancellation signal for a single call. Cancel aborts whatever the
// instance currently has outstanding and is safe to call when nothing is.
type Transport interface {
	// SendBuffered issues a non-streaming request and returns the complete content.
	SendBuffered(ctx context.Context, history []messages.ChatMessage, cfg config.ActiveConfig) (string, error)

	// SendStreaming issues a streaming request, calling onDelta once per increment in
	// arrival order. It returns nil when the stream ends or the request is cancelled.
	SendStreaming(ctx context.Context, history []messages.ChatMessage, cfg config.ActiveConfig, onDelta DeltaFunc) error

	// Cancel aborts the outstanding request, if any.
	Cancel()
}
