package compat

import "github.com/casualjim/aione/messages"

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

const (
	contentPath      = "choices.0.message.content"
	errorMessagePath = "error.message"
)

func toWire(history []messages.ChatMessage) []wireMessage {
	result := make([]wireMessage, len(history))
	for i, m := range history {
		result[i] = wireMessage{Role: m.Role.String(), Content: m.Content}
	}
	return result
}
