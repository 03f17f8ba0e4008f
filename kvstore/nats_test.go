package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/casualjim/aione/pkg/uuidx"
	"github.com/nats-io/nats.go"
)

func setupNATS(t *testing.T) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(nats.DefaultURL, nats.Timeout(time.Second))
	if err != nil {
		t.Skipf("nats server not available: %v", err)
	}
	t.Cleanup(nc.Close)
	return nc
}

func TestNATS(t *testing.T) {
	nc := setupNATS(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := OpenNATS(ctx, nc, "aione_test_"+uuidx.New().String()[:8])
	if err != nil {
		t.Skipf("jetstream not available: %v", err)
	}
	runAcceptance(t, s)
}
