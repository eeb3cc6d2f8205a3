package preflight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mirzaaghazadeh/strix/internal/config"
	"github.com/mirzaaghazadeh/strix/internal/llm"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want Result
	}{
		{
			name: "nothing set",
			env:  map[string]string{},
			want: Result{
				MissingRequired: []string{"STRIX_LLM", "LLM_API_KEY"},
				MissingOptional: []string{"LLM_API_BASE", "PERPLEXITY_API_KEY"},
			},
		},
		{
			name: "cloud provider configured",
			env:  map[string]string{"STRIX_LLM": "openai/gpt-5", "LLM_API_KEY": "sk-1", "PERPLEXITY_API_KEY": "pplx"},
			want: Result{MissingOptional: []string{"LLM_API_BASE"}},
		},
		{
			name: "blank values count as unset",
			env:  map[string]string{"STRIX_LLM": "  ", "LLM_API_KEY": "sk-1"},
			want: Result{
				MissingRequired: []string{"STRIX_LLM"},
				MissingOptional: []string{"LLM_API_BASE", "PERPLEXITY_API_KEY"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Validate(envOf(tc.env))); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_EachEndpointOverrideMakesKeyOptional(t *testing.T) {
	for _, k := range config.EndpointKeys {
		t.Run(k, func(t *testing.T) {
			r := Validate(envOf(map[string]string{"STRIX_LLM": "ollama/llama3", k: "http://localhost:11434"}))
			if !r.OK() {
				t.Fatalf("MissingRequired = %v, want none", r.MissingRequired)
			}
			want := []string{"LLM_API_KEY", "PERPLEXITY_API_KEY"}
			if diff := cmp.Diff(want, r.MissingOptional); diff != "" {
				t.Errorf("MissingOptional mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResult_Err(t *testing.T) {
	if err := (Result{MissingOptional: []string{"X"}}).Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
	err := Result{MissingRequired: []string{"STRIX_LLM"}}.Err()
	var mce *MissingCredentialError
	if !errors.As(err, &mce) || mce.Keys[0] != "STRIX_LLM" {
		t.Fatalf("Err() = %v", err)
	}
	if !strings.Contains(err.Error(), "STRIX_LLM") {
		t.Errorf("message %q does not name the key", err.Error())
	}
}

func TestRenderMissing(t *testing.T) {
	out := RenderMissing(Validate(envOf(map[string]string{})))
	for _, want := range []string{
		"• STRIX_LLM is not set",
		"• LLM_API_KEY - API key for the LLM provider (required for cloud providers)",
		"export STRIX_LLM='openai/gpt-5'",
		"export LLM_API_KEY='your-api-key-here'\n",
		"export LLM_API_BASE='http://localhost:11434'",
		"export PERPLEXITY_API_KEY=",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("panel missing %q:\n%s", want, out)
		}
	}

	local := RenderMissing(Validate(envOf(map[string]string{"OLLAMA_API_BASE": "http://x"})))
	if !strings.Contains(local, "# optional with local models") {
		t.Errorf("local-model panel should show the optional key export:\n%s", local)
	}
}

type fakeClient struct {
	reply string
	err   error
	calls int
	msgs  []llm.Message
	ctx   context.Context
}

func (f *fakeClient) Complete(ctx context.Context, msgs []llm.Message) (string, error) {
	f.calls++
	f.msgs = msgs
	f.ctx = ctx
	return f.reply, f.err
}
func (f *fakeClient) Model() string    { return "gpt-5" }
func (f *fakeClient) Endpoint() string { return "https://api.openai.com/v1" }

func TestWarmup_OK(t *testing.T) {
	c := &fakeClient{reply: "OK"}
	if err := Warmup(context.Background(), c, time.Minute); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	want := []llm.Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "Reply with just 'OK'."},
	}
	if diff := cmp.Diff(want, c.msgs); diff != "" {
		t.Errorf("probe messages mismatch:\n%s", diff)
	}
	if _, ok := c.ctx.Deadline(); !ok {
		t.Error("probe context has no deadline")
	}
}

func TestWarmup_Failures(t *testing.T) {
	transport := errors.New(`Post "https://api.openai.com/v1/chat/completions": dial tcp: no such host`)
	cases := []struct {
		name   string
		client *fakeClient
		is     error
	}{
		{"transport", &fakeClient{err: transport}, transport},
		{"blank reply", &fakeClient{reply: " \n"}, llm.ErrEmptyCompletion},
		{"empty completion", &fakeClient{err: llm.ErrEmptyCompletion}, llm.ErrEmptyCompletion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Warmup(context.Background(), tc.client, 0)
			var lce *LLMConnectivityError
			if !errors.As(err, &lce) {
				t.Fatalf("err = %v, want LLMConnectivityError", err)
			}
			if !errors.Is(err, tc.is) {
				t.Errorf("err = %v, want it to wrap %v", err, tc.is)
			}
			if lce.Model != "gpt-5" || tc.client.calls != 1 {
				t.Errorf("model=%q calls=%d", lce.Model, tc.client.calls)
			}
			if !strings.Contains(RenderConnectivity(err), tc.is.Error()) {
				t.Errorf("panel does not include the underlying error")
			}
		})
	}
}
