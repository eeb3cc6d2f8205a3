// Package preflight checks that the model configuration is usable before any
// scan work starts.
package preflight

import (
	"fmt"
	"strings"

	"github.com/mirzaaghazadeh/strix/internal/config"
)

// Result lists the configuration keys that are not set.
type Result struct {
	MissingRequired []string
	MissingOptional []string
}

// OK reports whether every required key is present.
func (r Result) OK() bool { return len(r.MissingRequired) == 0 }

// Err returns a *MissingCredentialError when required keys are missing.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &MissingCredentialError{Keys: r.MissingRequired}
}

// MissingCredentialError names the required keys that are unset.
type MissingCredentialError struct {
	Keys []string
}

func (e *MissingCredentialError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

// Validate checks the environment. The model is always required. The API key
// is required unless an endpoint override points at a local or proxy model,
// in which case it is optional.
func Validate(getenv func(string) string) Result {
	var r Result
	set := func(k string) bool { return strings.TrimSpace(getenv(k)) != "" }

	if !set(config.KeyModel) {
		r.MissingRequired = append(r.MissingRequired, config.KeyModel)
	}

	_, base := config.ActiveEndpoint(getenv)
	hasBase := base != ""
	if !set(config.KeyAPIKey) {
		if hasBase {
			r.MissingOptional = append(r.MissingOptional, config.KeyAPIKey)
		} else {
			r.MissingRequired = append(r.MissingRequired, config.KeyAPIKey)
		}
	}
	if !hasBase {
		r.MissingOptional = append(r.MissingOptional, config.KeyAPIBase)
	}
	if !set(config.KeySearchKey) {
		r.MissingOptional = append(r.MissingOptional, config.KeySearchKey)
	}
	return r
}

var requiredHelp = map[string]string{
	config.KeyModel:  "Model name to use, as provider/model (e.g., 'openai/gpt-5')",
	config.KeyAPIKey: "API key for the LLM provider (required for cloud providers)",
}

var optionalHelp = map[string]string{
	config.KeyAPIKey:    "API key for the LLM provider",
	config.KeyAPIBase:   "Custom API base URL if using local models (e.g., Ollama, LMStudio)",
	config.KeySearchKey: "API key for Perplexity AI web search (enables real-time research)",
}

var optionalExport = map[string]string{
	config.KeyAPIKey:    "export LLM_API_KEY='your-api-key-here'  # optional with local models",
	config.KeyAPIBase:   "export LLM_API_BASE='http://localhost:11434'  # needed for local models only",
	config.KeySearchKey: "export PERPLEXITY_API_KEY='your-perplexity-key-here'",
}

// RenderMissing is the body of the configuration error panel.
func RenderMissing(r Result) string {
	var b strings.Builder
	b.WriteString("❌ MISSING REQUIRED ENVIRONMENT VARIABLES\n\n")
	for _, k := range r.MissingRequired {
		fmt.Fprintf(&b, "• %s is not set\n", k)
	}
	if len(r.MissingOptional) > 0 {
		b.WriteString("\nOptional environment variables:\n")
		for _, k := range r.MissingOptional {
			fmt.Fprintf(&b, "• %s is not set\n", k)
		}
	}

	b.WriteString("\nRequired environment variables:\n")
	for _, k := range r.MissingRequired {
		fmt.Fprintf(&b, "• %s - %s\n", k, requiredHelp[k])
	}
	if len(r.MissingOptional) > 0 {
		b.WriteString("\nOptional environment variables:\n")
		for _, k := range r.MissingOptional {
			fmt.Fprintf(&b, "• %s - %s\n", k, optionalHelp[k])
		}
	}

	b.WriteString("\nExample setup:\n")
	b.WriteString("export STRIX_LLM='openai/gpt-5'\n")
	for _, k := range r.MissingRequired {
		if k == config.KeyAPIKey {
			b.WriteString("export LLM_API_KEY='your-api-key-here'\n")
		}
	}
	for _, k := range r.MissingOptional {
		b.WriteString(optionalExport[k] + "\n")
	}
	b.WriteString("\nOr run 'strix config set KEY VALUE' to store them in the config file.")
	return b.String()
}
