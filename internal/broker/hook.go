package broker

import (
	"context"
	"log/slog"

	"github.com/casualjim/aione/events"
	"github.com/casualjim/aione/pkg/slogx"
	"github.com/google/uuid"
)

var _ events.Hook = (*PublishingHook)(nil)

// PublishingHook forwards every lifecycle event to a topic. Publish failures are logged
// and never reach the sender.
type PublishingHook struct {
	topic  Topic
	logger *slog.Logger
}

func NewPublishingHook(topic Topic, logger *slog.Logger) *PublishingHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishingHook{
		topic:  topic,
		logger: logger.With(slogx.LoggerName("aione.broker")),
	}
}

func (p *PublishingHook) OnRequest(ctx context.Context, evt events.Request) {
	p.publish(ctx, evt)
	p.publish(ctx, events.Delim{RequestID: evt.RequestID, Delim: events.DelimStart})
}

func (p *PublishingHook) OnChunk(ctx context.Context, evt events.Chunk) {
	p.publish(ctx, evt)
}

func (p *PublishingHook) OnResponse(ctx context.Context, evt events.Response) {
	p.publish(ctx, evt)
	p.publish(ctx, events.Delim{RequestID: evt.RequestID, Delim: events.DelimEnd})
}

func (p *PublishingHook) OnError(ctx context.Context, evt events.Error) {
	p.publish(ctx, evt)
	p.publish(ctx, events.Delim{RequestID: evt.RequestID, Delim: events.DelimEnd})
}

func (p *PublishingHook) OnCancel(ctx context.Context, id uuid.UUID) {
	p.publish(ctx, events.Delim{RequestID: id, Delim: events.DelimCancel})
}

func (p *PublishingHook) publish(ctx context.Context, evt events.Event) {
	// the request context may already be cancelled when the cancel event goes out
	ctx = context.WithoutCancel(ctx)
	if err := p.topic.Publish(ctx, evt); err != nil {
		p.logger.WarnContext(ctx, "failed to publish chat event", slogx.Error(err), slog.String("request_id", evt.ID().String()))
	}
}
