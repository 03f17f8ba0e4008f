package broker

import (
	"context"

	"github.com/casualjim/aione/events"
)

// Broker hands out named topics.
type Broker interface {
	Topic(context.Context, string) Topic
}

// Topic distributes request lifecycle events to its subscribers.
type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}
