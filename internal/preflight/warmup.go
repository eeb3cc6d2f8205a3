package preflight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mirzaaghazadeh/strix/internal/llm"
	"github.com/mirzaaghazadeh/strix/internal/logging"
)

// DefaultWarmupTimeout bounds the probe when STRIX_WARMUP_TIMEOUT is unset.
const DefaultWarmupTimeout = 60 * time.Second

var probe = []llm.Message{
	{Role: "system", Content: "You are a helpful assistant."},
	{Role: "user", Content: "Reply with just 'OK'."},
}

// LLMConnectivityError wraps any failure of the warm-up request.
type LLMConnectivityError struct {
	Model    string
	Endpoint string
	Err      error
}

func (e *LLMConnectivityError) Error() string {
	return fmt.Sprintf("LLM connection failed (model %s at %s): %v", e.Model, e.Endpoint, e.Err)
}

func (e *LLMConnectivityError) Unwrap() error { return e.Err }

// Warmup sends one minimal request and requires a non-blank answer. There is
// no retry. timeout <= 0 means only ctx bounds the call.
func Warmup(ctx context.Context, c llm.Client, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	log := logging.New("warmup")
	log.Debug("probing model", "model", c.Model(), "endpoint", c.Endpoint())

	reply, err := c.Complete(ctx, probe)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		log.Debug("probe failed", "error", err)
		return &LLMConnectivityError{Model: c.Model(), Endpoint: c.Endpoint(), Err: err}
	}
	log.Debug("probe ok", "reply_len", len(reply))
	return nil
}

// RenderConnectivity is the body of the LLM connection error panel.
func RenderConnectivity(err error) string {
	return "❌ LLM CONNECTION FAILED\n\n" +
		"Could not establish connection to the language model.\n" +
		"Please check your configuration and try again.\n\n" +
		"Error: " + err.Error()
}
