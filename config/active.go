package config

import (
	"fmt"
	"log/slog"

	"github.com/casualjim/aione/provider"
	json "github.com/goccy/go-json"
	"github.com/tidwall/sjson"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048

	MinTemperature = 0.0
	MaxTemperature = 2.0

	redacted = "********"
)

// ActiveConfig is the provider selection and request parameters used for every send.
// The JSON form is what gets persisted in the key-value store.
type ActiveConfig struct {
	ProviderID  string  `json:"provider" jsonschema:"title=Provider,enum=openai,enum=kimi,enum=deepseek"`
	APIKey      string  `json:"apiKey" jsonschema:"title=API key"`
	BaseURL     string  `json:"baseURL,omitempty" jsonschema:"title=Base URL,format=uri"`
	Model       string  `json:"model" jsonschema:"title=Model"`
	Temperature float64 `json:"temperature" jsonschema:"title=Temperature,minimum=0,maximum=2,default=0.7"`
	MaxTokens   int     `json:"maxTokens" jsonschema:"title=Max tokens,minimum=1,default=2048"`
}

// Default returns the built-in configuration used on first run and after Reset.
func Default() ActiveConfig {
	return ActiveConfig{
		ProviderID:  provider.OpenAI,
		Model:       "gpt-3.5-turbo",
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// ResolveBaseURL returns the configured base URL, or the descriptor's default when the
// configuration does not override it.
func (c ActiveConfig) ResolveBaseURL(desc provider.Descriptor) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return desc.BaseURL
}

// String renders the configuration with the API key masked.
func (c ActiveConfig) String() string {
	return fmt.Sprintf("provider=%s model=%s baseURL=%s temperature=%.2f maxTokens=%d apiKey=%s",
		c.ProviderID, c.Model, c.BaseURL, c.Temperature, c.MaxTokens, mask(c.APIKey))
}

// LogValue implements slog.LogValuer so the key never reaches a log sink.
func (c ActiveConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", c.ProviderID),
		slog.String("model", c.Model),
		slog.String("baseURL", c.BaseURL),
		slog.Float64("temperature", c.Temperature),
		slog.Int("maxTokens", c.MaxTokens),
		slog.String("apiKey", mask(c.APIKey)),
	)
}

// RedactedJSON returns the persisted JSON form with the API key masked.
func (c ActiveConfig) RedactedJSON() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(b, "apiKey", mask(c.APIKey))
}

func mask(key string) string {
	if key == "" {
		return ""
	}
	return redacted
}
