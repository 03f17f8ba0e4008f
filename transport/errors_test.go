package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPError(t *testing.T) {
	t.Run("401 with detail", func(t *testing.T) {
		err := HTTPError("kimi", http.StatusUnauthorized, "invalid key", nil)
		var ae *AuthError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "invalid key", err.Error())
		assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
		assert.True(t, IsAuth(err))
	})

	t.Run("401 without detail", func(t *testing.T) {
		err := HTTPError("kimi", http.StatusUnauthorized, "", nil)
		assert.Equal(t, "API request failed: 401", err.Error())
	})

	t.Run("403 is auth", func(t *testing.T) {
		assert.True(t, IsAuth(HTTPError("kimi", http.StatusForbidden, "", nil)))
	})

	t.Run("500 is api error", func(t *testing.T) {
		err := HTTPError("deepseek", http.StatusInternalServerError, "", []byte("oops"))
		var ae *APIError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "API request failed: 500", err.Error())
		assert.Equal(t, []byte("oops"), ae.Raw)
		assert.False(t, IsAuth(err))
	})
}

func TestCancelled(t *testing.T) {
	t.Run("context canceled", func(t *testing.T) {
		err, ok := Cancelled(context.Background(), "openai", fmt.Errorf("read: %w", context.Canceled))
		require.True(t, ok)
		assert.True(t, IsCancelled(err))
		assert.Equal(t, "request was cancelled", err.Error())
	})

	t.Run("cancelled context with opaque error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, ok := Cancelled(ctx, "openai", errors.New("use of closed network connection"))
		assert.True(t, ok)
	})

	t.Run("other errors", func(t *testing.T) {
		_, ok := Cancelled(context.Background(), "openai", errors.New("boom"))
		assert.False(t, ok)
		assert.False(t, IsCancelled(errors.New("boom")))
	})
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("send: %w", &NetworkError{Message: "dial failed", Cause: cause})
	assert.ErrorIs(t, err, cause)

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "dial failed", ne.Error())

	mr := &MalformedResponseError{Message: "missing content"}
	assert.Equal(t, "missing content", mr.Error())

	up := &UnsupportedProviderError{Provider: "x"}
	assert.Equal(t, "unsupported provider: x", up.Error())
}
