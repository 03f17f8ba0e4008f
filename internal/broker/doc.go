// Package broker distributes chat request lifecycle events to subscribers.
//
// A Broker hands out named topics. Local keeps everything in process; NATS publishes JSON
// encoded events on the subject aione.chat.<topic> so other processes can follow along.
//
// The dispatch service feeds a topic through a PublishingHook:
//
//	topic := broker.Local().Topic(ctx, "session")
//	svc, err := aione.New(store, aione.WithHook(broker.NewPublishingHook(topic, logger)))
//
//	sub, err := topic.Subscribe(ctx, myHook)
//	defer sub.Unsubscribe()
//
// Subscribers receive events through an events.Hook. A local subscriber that cannot keep
// up is dropped after a short timeout instead of blocking the publisher.
package broker
