package llm

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com"

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli      *genai.Client
	model    string
	endpoint string
}

// NewGeminiClient uses apiKey when set, otherwise the genai defaults
// (GEMINI_API_KEY / GOOGLE_API_KEY). baseURL overrides the API host.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	endpoint := geminiEndpoint
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
		endpoint = baseURL
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model, endpoint: endpoint}, nil
}

func (g *GeminiClient) Model() string    { return g.model }
func (g *GeminiClient) Endpoint() string { return g.endpoint }

func (g *GeminiClient) Complete(ctx context.Context, msgs []Message) (string, error) {
	var (
		system   []*genai.Part
		contents []*genai.Content
	)
	for _, m := range msgs {
		part := &genai.Part{Text: m.Content}
		switch m.Role {
		case "system":
			system = append(system, part)
		case "assistant":
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{part}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{part}})
		}
	}

	var cfg *genai.GenerateContentConfig
	if len(system) > 0 {
		cfg = &genai.GenerateContentConfig{SystemInstruction: &genai.Content{Parts: system}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyCompletion
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return sb.String(), nil
}
