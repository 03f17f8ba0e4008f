package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the JetStream key-value bucket used when none is configured.
const DefaultBucket = "aione"

const natsOpTimeout = 5 * time.Second

// NATS stores values in a JetStream key-value bucket, so several client processes can
// share one configuration.
type NATS struct {
	kv      jetstream.KeyValue
	timeout time.Duration
}

// OpenNATS binds to bucket, creating it when it does not exist yet.
func OpenNATS(ctx context.Context, nc *nats.Conn, bucket string) (*NATS, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("kvstore: jetstream: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "aione client settings",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("kvstore: bind bucket %s: %w", bucket, err)
	}
	return &NATS{kv: kv, timeout: natsOpTimeout}, nil
}

func (n *NATS) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	entry, err := n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(entry.Value()), true, nil
}

func (n *NATS) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	_, err := n.kv.Put(ctx, key, []byte(value))
	return err
}

func (n *NATS) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	err := n.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Watch calls onChange whenever key is updated in the bucket, until ctx is done.
func (n *NATS) Watch(ctx context.Context, key string, onChange func()) error {
	w, err := n.kv.Watch(ctx, key, jetstream.UpdatesOnly())
	if err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, ok := <-w.Updates():
			if !ok {
				return nil
			}
			if entry != nil {
				onChange()
			}
		}
	}
}
