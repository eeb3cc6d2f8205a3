// Package llm sends single chat-completion requests to the configured model.
// It exists for the connectivity probe; the scan engine has its own client.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mirzaaghazadeh/strix/internal/config"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client completes a conversation with a single blocking request.
type Client interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
	Model() string
	Endpoint() string
}

// ErrEmptyCompletion is returned when the provider answers without content.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// DefaultModel is used when STRIX_LLM is unset.
const DefaultModel = "openai/gpt-5"

// providerBases are OpenAI-compatible base URLs for "<provider>/<model>" identifiers.
var providerBases = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"anthropic":  "https://api.anthropic.com/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"mistral":    "https://api.mistral.ai/v1",
	"deepseek":   "https://api.deepseek.com/v1",
	"ollama":     "http://localhost:11434/v1",
	"xai":        "https://api.x.ai/v1",
}

// SplitModel splits "provider/model". A bare model name is treated as OpenAI.
func SplitModel(id string) (provider, model string) {
	if i := strings.Index(id, "/"); i > 0 {
		return strings.ToLower(id[:i]), id[i+1:]
	}
	return "openai", id
}

// NewFromEnv builds a client for STRIX_LLM. "gemini/<model>" goes through the
// Gemini API; every other provider is called through its OpenAI-compatible
// chat completions endpoint, or through the active endpoint override.
func NewFromEnv(ctx context.Context, getenv func(string) string) (Client, error) {
	id := strings.TrimSpace(getenv(config.KeyModel))
	if id == "" {
		id = DefaultModel
	}
	apiKey := strings.TrimSpace(getenv(config.KeyAPIKey))
	_, base := config.ActiveEndpoint(getenv)
	provider, model := SplitModel(id)

	if provider == "gemini" {
		g, err := NewGeminiClient(ctx, apiKey, model, base)
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	if base == "" {
		base = providerBases[provider]
		if base == "" {
			return nil, fmt.Errorf("unknown provider %q in %s; set %s", provider, id, config.KeyAPIBase)
		}
	} else if provider == "ollama" && !strings.HasSuffix(strings.TrimRight(base, "/"), "/v1") {
		base = strings.TrimRight(base, "/") + "/v1"
	}
	return NewOpenAIClient(base, apiKey, model), nil
}
