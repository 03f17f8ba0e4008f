package messages

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	assert.Equal(t, ChatMessage{Role: RoleSystem, Content: "be nice"}, System("be nice"))
	assert.Equal(t, ChatMessage{Role: RoleUser, Content: "hi"}, User("hi"))
	assert.Equal(t, ChatMessage{Role: RoleAssistant, Content: "hello"}, Assistant("hello"))
	assert.Equal(t, "user: hi", User("hi").String())
}

func TestChatMessage_JSON(t *testing.T) {
	b, err := json.Marshal(User("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, string(b))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		history []ChatMessage
		wantErr string
	}{
		{name: "valid", history: []ChatMessage{System("s"), User("u"), Assistant("a")}},
		{name: "empty", history: nil, wantErr: "conversation is empty"},
		{name: "bad role", history: []ChatMessage{User("u"), {Role: "tool", Content: "x"}}, wantErr: `message 1: invalid role "tool"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.history)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestLastUserPrompt(t *testing.T) {
	prompt, ok := LastUserPrompt([]ChatMessage{User("first"), Assistant("a"), User("second"), Assistant("b")})
	assert.True(t, ok)
	assert.Equal(t, "second", prompt)

	_, ok = LastUserPrompt([]ChatMessage{System("s"), User("  ")})
	assert.False(t, ok)
}
