package compat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/messages"
	"github.com/casualjim/aione/provider"
	"github.com/casualjim/aione/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var history = []messages.ChatMessage{
	messages.System("You are terse"),
	messages.User("Say hello"),
}

func setupTestServer(t *testing.T, handler http.HandlerFunc) (*Client, config.ActiveConfig) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	desc, err := provider.Builtin().Lookup(provider.Kimi)
	require.NoError(t, err)

	c, err := New(desc, WithHeader("X-Client", "aione"))
	require.NoError(t, err)

	cfg := config.ActiveConfig{
		ProviderID:  provider.Kimi,
		APIKey:      "sk-test",
		BaseURL:     server.URL + "/v1/",
		Model:       "moonshot-v1-8k",
		Temperature: 0.3,
		MaxTokens:   128,
	}
	return c, cfg
}

func streamChunk(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", content)
}

func TestClient_SendBuffered(t *testing.T) {
	c, cfg := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "aione", r.Header.Get("X-Client"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "moonshot-v1-8k", gjson.GetBytes(body, "model").String())
		assert.Equal(t, 0.3, gjson.GetBytes(body, "temperature").Float())
		assert.Equal(t, int64(128), gjson.GetBytes(body, "max_tokens").Int())
		assert.False(t, gjson.GetBytes(body, "stream").Bool())
		assert.True(t, gjson.GetBytes(body, "stream").Exists())
		assert.JSONEq(t,
			`[{"role":"system","content":"You are terse"},{"role":"user","content":"Say hello"}]`,
			gjson.GetBytes(body, "messages").Raw)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":"Hello!"}}]}`)
	})

	content, err := c.SendBuffered(context.Background(), history, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", content)
}

func TestClient_DefaultBaseURL(t *testing.T) {
	var gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Path
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	t.Cleanup(server.Close)

	c, err := New(provider.Descriptor{ID: "local", BaseURL: server.URL + "/api/v1"})
	require.NoError(t, err)
	_, err = c.SendBuffered(context.Background(), history, config.ActiveConfig{APIKey: "k", Model: "m", MaxTokens: 1})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/chat/completions", gotURL)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
		message string
	}{
		{
			name:    "401 with error message",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"invalid key","type":"invalid_request_error"}}`,
			message: "invalid key",
			check: func(t *testing.T, err error) {
				assert.True(t, transport.IsAuth(err))
			},
		},
		{
			name:    "401 with empty body",
			status:  http.StatusUnauthorized,
			body:    "",
			message: "API request failed: 401",
			check: func(t *testing.T, err error) {
				assert.True(t, transport.IsAuth(err))
			},
		},
		{
			name:    "401 with unparsable body",
			status:  http.StatusUnauthorized,
			body:    "<html>nope</html>",
			message: "API request failed: 401",
		},
		{
			name:    "429 with message",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"message":"slow down"}}`,
			message: "slow down",
			check: func(t *testing.T, err error) {
				var ae *transport.APIError
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, http.StatusTooManyRequests, ae.StatusCode)
			},
		},
		{
			name:    "500 without message",
			status:  http.StatusInternalServerError,
			body:    `{"error":{}}`,
			message: "API request failed: 500",
		},
		{
			name:    "2xx without content",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			message: "API response has no message content",
			check: func(t *testing.T, err error) {
				var me *transport.MalformedResponseError
				require.ErrorAs(t, err, &me)
			},
		},
		{
			name:    "2xx with invalid json",
			status:  http.StatusOK,
			body:    `{"choices":`,
			message: "API returned malformed data",
			check: func(t *testing.T, err error) {
				var me *transport.MalformedResponseError
				require.ErrorAs(t, err, &me)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, cfg := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.SendBuffered(context.Background(), history, cfg)
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
			if tt.check != nil {
				tt.check(t, err)
			}

			// streaming surfaces the same errors
			if tt.status >= 300 {
				err = c.SendStreaming(context.Background(), history, cfg, func(string) {})
				require.Error(t, err)
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
}

func TestClient_MissingAPIKey(t *testing.T) {
	calls := 0
	c, cfg := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) { calls++ })
	cfg.APIKey = ""

	_, err := c.SendBuffered(context.Background(), history, cfg)
	assert.True(t, transport.IsAuth(err))
	assert.Zero(t, calls)
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	c, err := New(provider.Descriptor{ID: "kimi"})
	require.NoError(t, err)
	_, err = c.SendBuffered(context.Background(), history, config.ActiveConfig{APIKey: "k", BaseURL: baseURL})
	var ne *transport.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Contains(t, err.Error(), "network error")
}

func TestClient_SendStreaming(t *testing.T) {
	c, cfg := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, gjson.GetBytes(body, "stream").Bool())
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, ": keep-alive\n\n")
		for _, part := range []string{"Hel", "lo", " world"} {
			fmt.Fprint(w, streamChunk(part))
			flusher.Flush()
		}
		fmt.Fprint(w, "data: {broken\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, streamChunk("ignored"))
	})

	var got []string
	err := c.SendStreaming(context.Background(), history, cfg, func(s string) { got = append(got, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo", " world"}, got)
}

func TestClient_SendStreaming_Cancel(t *testing.T) {
	release := make(chan struct{})
	c, cfg := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, streamChunk("first"))
		flusher.Flush()

		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	var mu sync.Mutex
	var got []string
	first := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- c.SendStreaming(context.Background(), history, cfg, func(s string) {
			mu.Lock()
			got = append(got, s)
			mu.Unlock()
			close(first)
		})
	}()

	<-first
	c.Cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean stop")
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first"}, got)

	// nothing outstanding any more
	c.Cancel()
}

func TestClient_SendBuffered_Cancel(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	c, cfg := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	done := make(chan error, 1)
	go func() {
		_, err := c.SendBuffered(context.Background(), history, cfg)
		done <- err
	}()
	<-started
	c.Cancel()

	select {
	case err := <-done:
		assert.True(t, transport.IsCancelled(err), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not stop after cancel")
	}
}

func TestClient_RateLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	t.Cleanup(server.Close)

	c, err := New(provider.Descriptor{ID: "kimi"}, WithRateLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))
	require.NoError(t, err)
	cfg := config.ActiveConfig{APIKey: "k", BaseURL: server.URL}

	_, err = c.SendBuffered(context.Background(), history, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	_, err = c.SendBuffered(ctx, history, cfg)
	assert.True(t, transport.IsCancelled(err), "got %v", err)
}

func TestFactory(t *testing.T) {
	tr, err := Factory()(provider.Descriptor{ID: provider.DeepSeek})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, tr)
}
