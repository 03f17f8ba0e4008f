package natsx

import (
	"cmp"
	"os"

	"github.com/nats-io/nats.go"
)

// EnvURL names the environment variable consulted when no URL is given.
const EnvURL = "NATS_URL"

// NewClient connects to the NATS server at url, falling back to $NATS_URL and then to
// nats.DefaultURL. Without options the connection is named "aione" and uses compression.
func NewClient(url string, opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name("aione"), nats.Compression(true))
	}
	return nats.Connect(ResolveURL(url), opts...)
}

// ResolveURL applies the fallback order used by NewClient.
func ResolveURL(url string) string {
	return cmp.Or(url, os.Getenv(EnvURL), nats.DefaultURL)
}
