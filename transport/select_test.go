package transport

import (
	"context"
	"testing"

	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/messages"
	"github.com/casualjim/aione/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedTransport struct{ name string }

func (n *namedTransport) SendBuffered(context.Context, []messages.ChatMessage, config.ActiveConfig) (string, error) {
	return n.name, nil
}

func (n *namedTransport) SendStreaming(context.Context, []messages.ChatMessage, config.ActiveConfig, DeltaFunc) error {
	return nil
}

func (n *namedTransport) Cancel() {}

func factoryFor(name string) Factory {
	return func(provider.Descriptor) (Transport, error) {
		return &namedTransport{name: name}, nil
	}
}

func TestSelector(t *testing.T) {
	s := NewSelector(factoryFor("compat")).Register(provider.OpenAI, factoryFor("sdk"))

	for _, tc := range []struct {
		id   string
		want string
	}{
		{provider.OpenAI, "sdk"},
		{provider.Kimi, "compat"},
		{provider.DeepSeek, "compat"},
		{"local", "compat"},
	} {
		tr, err := s.New(provider.Descriptor{ID: tc.id})
		require.NoError(t, err)
		assert.Equal(t, tc.want, tr.(*namedTransport).name, tc.id)
	}
	assert.True(t, s.Specialised(provider.OpenAI))
	assert.False(t, s.Specialised(provider.Kimi))
}

func TestSelector_NoFallback(t *testing.T) {
	s := NewSelector(nil)
	_, err := s.New(provider.Descriptor{ID: "kimi"})
	var ue *UnsupportedProviderError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "kimi", ue.Provider)
}
