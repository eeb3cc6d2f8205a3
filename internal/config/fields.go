package config

import "strings"

// Field describes one editable setting on the settings screen.
type Field struct {
	Key         string
	Label       string
	Description string
	Placeholder string
	Secret      bool
	Required    bool
}

// Fields is the settings screen layout, top to bottom.
var Fields = []Field{
	{
		Key:         KeyModel,
		Label:       "Model Name (STRIX_LLM)",
		Description: "Example: openai/gpt-5, anthropic/claude-3-5-sonnet",
		Placeholder: "openai/gpt-5",
		Required:    true,
	},
	{
		Key:         KeyAPIKey,
		Label:       "LLM API Key (LLM_API_KEY)",
		Description: "Your API key for the LLM provider",
		Placeholder: "sk-...",
		Secret:      true,
		Required:    true,
	},
	{
		Key:         KeySearchKey,
		Label:       "Perplexity API Key (PERPLEXITY_API_KEY)",
		Description: "Optional: For web search capabilities",
		Placeholder: "pplx-...",
		Secret:      true,
	},
	{
		Key:         KeyAPIBase,
		Label:       "LLM API Base URL (LLM_API_BASE)",
		Description: "Optional: For local models (e.g., http://localhost:11434)",
		Placeholder: "http://localhost:11434",
	},
}

// SettingsUpdate builds the partial record saved from the settings screen.
// Blank inputs are skipped, except that a blank required field keeps its
// current value so a save never clears the model or the API key.
func SettingsUpdate(values map[string]string, current Record) Record {
	out := Record{}
	for _, f := range Fields {
		if v := strings.TrimSpace(values[f.Key]); v != "" {
			out[f.Key] = v
			continue
		}
		if f.Required && current[f.Key] != "" {
			out[f.Key] = current[f.Key]
		}
	}
	return out
}
