package events

import (
	"context"

	"github.com/google/uuid"
)

// Hook observes the lifecycle of chat requests. Methods are called synchronously from the
// sending goroutine and should return quickly.
type Hook interface {
	OnRequest(context.Context, Request)
	OnChunk(context.Context, Chunk)
	OnResponse(context.Context, Response)
	OnError(context.Context, Error)
	OnCancel(context.Context, uuid.UUID)
}

// NoopHook implements Hook with empty methods. Embed it to implement a subset.
type NoopHook struct{}

func (NoopHook) OnRequest(context.Context, Request)   {}
func (NoopHook) OnChunk(context.Context, Chunk)       {}
func (NoopHook) OnResponse(context.Context, Response) {}
func (NoopHook) OnError(context.Context, Error)       {}
func (NoopHook) OnCancel(context.Context, uuid.UUID)  {}

// Multi fans out to several hooks in order. Nil hooks are skipped.
func Multi(hooks ...Hook) Hook {
	filtered := make(multiHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

type multiHook []Hook

func (m multiHook) OnRequest(ctx context.Context, evt Request) {
	for _, h := range m {
		h.OnRequest(ctx, evt)
	}
}

func (m multiHook) OnChunk(ctx context.Context, evt Chunk) {
	for _, h := range m {
		h.OnChunk(ctx, evt)
	}
}

func (m multiHook) OnResponse(ctx context.Context, evt Response) {
	for _, h := range m {
		h.OnResponse(ctx, evt)
	}
}

func (m multiHook) OnError(ctx context.Context, evt Error) {
	for _, h := range m {
		h.OnError(ctx, evt)
	}
}

func (m multiHook) OnCancel(ctx context.Context, id uuid.UUID) {
	for _, h := range m {
		h.OnCancel(ctx, id)
	}
}

// Dispatch routes evt to the matching hook method. Start and end delimiters carry no
// payload and are not forwarded.
func Dispatch(ctx context.Context, hook Hook, evt Event) {
	switch evt := evt.(type) {
	case Request:
		hook.OnRequest(ctx, evt)
	case Chunk:
		hook.OnChunk(ctx, evt)
	case Response:
		hook.OnResponse(ctx, evt)
	case Error:
		hook.OnError(ctx, evt)
	case Delim:
		if evt.Delim == DelimCancel {
			hook.OnCancel(ctx, evt.RequestID)
		}
	}
}
