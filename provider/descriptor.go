package provider

import "slices"

// Well-known provider ids.
const (
	OpenAI   = "openai"
	Kimi     = "kimi"
	DeepSeek = "deepseek"
)

// Descriptor describes a chat-completion backend: where it lives and which models it
// serves. Descriptors are defined at process start and never mutated.
type Descriptor struct {
	// ID is the unique key used to select the provider in configuration
	ID string `json:"id"`

	// DisplayName is the human readable name shown by settings screens
	DisplayName string `json:"displayName"`

	// BaseURL is the default endpoint, without the /chat/completions suffix
	BaseURL string `json:"baseURL"`

	// Models lists the model identifiers in presentation order
	Models []string `json:"models"`

	// DefaultModel is selected whenever the provider is switched to without a model
	DefaultModel string `json:"defaultModel"`

	// DocURL points at the provider's API documentation, when known
	DocURL string `json:"docURL,omitempty"`
}

// HasModel reports whether name is part of the descriptor's model catalog.
func (d Descriptor) HasModel(name string) bool {
	return slices.Contains(d.Models, name)
}

func (d Descriptor) clone() Descriptor {
	d.Models = slices.Clone(d.Models)
	return d
}

var builtins = []Descriptor{
	{
		ID:           OpenAI,
		DisplayName:  "OpenAI",
		BaseURL:      "https://api.openai.com/v1",
		Models:       []string{"gpt-3.5-turbo", "gpt-4", "gpt-4-turbo-preview"},
		DefaultModel: "gpt-3.5-turbo",
		DocURL:       "https://platform.openai.com/docs/",
	},
	{
		ID:           Kimi,
		DisplayName:  "Moonshot Kimi",
		BaseURL:      "https://api.moonshot.cn/v1",
		Models:       []string{"moonshot-v1-8k", "moonshot-v1-32k", "moonshot-v1-128k"},
		DefaultModel: "moonshot-v1-8k",
		DocURL:       "https://platform.moonshot.cn/docs/",
	},
	{
		ID:           DeepSeek,
		DisplayName:  "DeepSeek",
		BaseURL:      "https://api.deepseek.com/v1",
		Models:       []string{"deepseek-chat", "deepseek-coder"},
		DefaultModel: "deepseek-chat",
		DocURL:       "https://api-docs.deepseek.com/zh-cn/",
	},
}
