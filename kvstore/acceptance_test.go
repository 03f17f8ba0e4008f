package kvstore

import (
	"testing"

	"github.com/casualjim/aione/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	config.KeyValue
	Delete(key string) error
}

// runAcceptance exercises the behaviour every backend has to share.
func runAcceptance(t *testing.T, s store) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := s.Get("missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set("ai_config", `{"provider":"kimi"}`))
		v, ok, err := s.Get("ai_config")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"provider":"kimi"}`, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set("ai_config", `{"provider":"deepseek"}`))
		v, _, err := s.Get("ai_config")
		require.NoError(t, err)
		assert.Equal(t, `{"provider":"deepseek"}`, v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete("ai_config"))
		_, ok, err := s.Get("ai_config")
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, s.Delete("ai_config"))
	})

	t.Run("backs a config store", func(t *testing.T) {
		cs, err := config.NewStore(s)
		require.NoError(t, err)
		require.NoError(t, cs.SetAPIKey("sk-round-trip"))

		fresh, err := config.NewStore(s)
		require.NoError(t, err)
		assert.Equal(t, "sk-round-trip", fresh.Get().APIKey)
	})
}

var (
	_ config.KeyValue = (*Memory)(nil)
	_ config.KeyValue = (*File)(nil)
	_ config.KeyValue = (*SQLite)(nil)
	_ config.KeyValue = (*NATS)(nil)
)
