package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/casualjim/aione"
	"github.com/casualjim/aione/config"
	"github.com/casualjim/aione/kvstore"
	"github.com/casualjim/aione/messages"
	"github.com/casualjim/aione/provider"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	ready    bool
	updates  int
	buffered []string
	chunks   []string
	errMsg   string
	seen     [][]messages.ChatMessage
}

func (f *fakeDispatcher) SendMessage(_ context.Context, history []messages.ChatMessage) aione.ChatResponse {
	f.seen = append(f.seen, history)
	if f.errMsg != "" {
		return aione.ChatResponse{IsError: true, ErrorMessage: f.errMsg}
	}
	return aione.ChatResponse{Content: strings.Join(f.buffered, "")}
}

func (f *fakeDispatcher) SendMessageStream(_ context.Context, history []messages.ChatMessage, onChunk aione.ChunkFunc, onError aione.ErrorFunc) {
	f.seen = append(f.seen, history)
	if f.errMsg != "" {
		onError(f.errMsg)
		return
	}
	for _, c := range f.chunks {
		onChunk(c)
	}
}

func (f *fakeDispatcher) UpdateConfig() { f.updates++ }
func (f *fakeDispatcher) IsReady() bool { return f.ready }

func runScript(t *testing.T, svc *fakeDispatcher, script string) (*repl, string) {
	t.Helper()
	color.NoColor = true

	store, err := config.NewStore(kvstore.NewMemory())
	require.NoError(t, err)

	var out bytes.Buffer
	r, err := newREPL(store, svc, strings.NewReader(script), &out)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))
	return r, out.String()
}

func TestREPL_NotConfiguredHint(t *testing.T) {
	_, out := runScript(t, &fakeDispatcher{}, "/quit\n")
	assert.Contains(t, out, "No API key configured")

	_, out = runScript(t, &fakeDispatcher{ready: true}, "exit\n")
	assert.NotContains(t, out, "No API key configured")
}

func TestREPL_ConfigCommands(t *testing.T) {
	svc := &fakeDispatcher{ready: true}
	r, out := runScript(t, svc, strings.Join([]string{
		"/provider kimi",
		"/models",
		"/key sk-secret",
		"/temperature 1.5",
		"/max-tokens 512",
		"/providers",
		"/quit",
	}, "\n")+"\n")

	cfg := r.store.Get()
	assert.Equal(t, provider.Kimi, cfg.ProviderID)
	assert.Equal(t, "moonshot-v1-8k", cfg.Model)
	assert.Equal(t, "sk-secret", cfg.APIKey)
	assert.InDelta(t, 1.5, cfg.Temperature, 1e-9)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, 4, svc.updates)

	assert.Contains(t, out, "moonshot-v1-128k")
	assert.Contains(t, out, "* kimi")
	assert.NotContains(t, out, "sk-secret")
}

func TestREPL_CommandErrors(t *testing.T) {
	svc := &fakeDispatcher{ready: true}
	_, out := runScript(t, svc, "/provider nope\n/temperature hot\n/max-tokens 0\n/stream maybe\n/frobnicate\n/quit\n")

	assert.Contains(t, out, "unknown provider")
	assert.Contains(t, out, `invalid temperature "hot"`)
	assert.Contains(t, out, "max tokens must be a positive integer")
	assert.Contains(t, out, "usage: /stream on|off")
	assert.Contains(t, out, "unknown command /frobnicate")
	assert.Zero(t, svc.updates)
}

func TestREPL_StreamingChat(t *testing.T) {
	svc := &fakeDispatcher{ready: true, chunks: []string{"Hel", "lo"}}
	r, out := runScript(t, svc, "hi\nagain\n/quit\n")

	assert.Contains(t, out, "openai: Hello")
	require.Len(t, svc.seen, 2)
	assert.Len(t, svc.seen[1], 3, "the second turn carries the first exchange")
	assert.Equal(t, []messages.ChatMessage{
		messages.User("hi"), messages.Assistant("Hello"),
		messages.User("again"), messages.Assistant("Hello"),
	}, r.history)
}

func TestREPL_ErrorDropsTurn(t *testing.T) {
	svc := &fakeDispatcher{ready: true, errMsg: "invalid key"}
	r, out := runScript(t, svc, "hi\n/stream off\nhi\n/quit\n")

	assert.Equal(t, 2, strings.Count(out, "error: invalid key"))
	assert.Empty(t, r.history)
}

func TestREPL_BufferedChat(t *testing.T) {
	svc := &fakeDispatcher{ready: true, buffered: []string{"**bold** reply"}}
	r, out := runScript(t, svc, "/stream off\nhello\n/clear\n/quit\n")

	assert.Contains(t, out, "bold")
	assert.Empty(t, r.history)
	require.Len(t, svc.seen, 1)
}
