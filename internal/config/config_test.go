package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := &Store{Dir: filepath.Join(t.TempDir(), "never-created")}
	rec, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rec) != 0 {
		t.Errorf("want empty record, got %v", rec)
	}
	if _, err := os.Stat(s.Dir); !os.IsNotExist(err) {
		t.Error("Load must not create the config dir")
	}
}

func TestSave_MergesAndPreservesUnknownKeys(t *testing.T) {
	s := &Store{Dir: filepath.Join(t.TempDir(), ".strix")}
	if err := s.Save(Record{KeyModel: "openai/gpt-5", KeyAPIKey: "sk-1", "CUSTOM_FLAG": "keep me"}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Save(Record{KeyAPIKey: "sk-2", KeyAPIBase: ""}); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	odd := Record{
		"PIN":        "007",
		"OFFSET":     "+5",
		"QUOTED":     `say "hi"`,
		"APOSTROPHE": "it's $HOME\\tmp",
		"DOLLAR":     "pa$$word${X}",
		"BACKSLASH":  `C:\dir\n`,
		"HASH":       "a #b",
		"SPACES":     "  padded  ",
	}
	if err := s.Save(odd); err != nil {
		t.Fatalf("third Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Record{
		KeyModel:      "openai/gpt-5",
		KeyAPIKey:     "sk-2",
		KeyAPIBase:    "",
		"CUSTOM_FLAG": "keep me",
	}
	for k, v := range odd {
		want[k] = v
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}

func TestSave_RejectsUnencodableValues(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	if err := s.Set(KeyModel, "openai/gpt-5"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for _, v := range []string{`it's "both"`, `trailing\`} {
		if err := s.Set("CUSTOM", v); err == nil {
			t.Errorf("Set(%q) succeeded, want error", v)
		}
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Record{KeyModel: "openai/gpt-5"}, got); diff != "" {
		t.Errorf("failed Set changed the file (-want +got):\n%s", diff)
	}
}

func TestGetSet(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	if v, err := s.Get(KeyModel, "openai/gpt-5"); err != nil || v != "openai/gpt-5" {
		t.Errorf("Get default = %q, %v", v, err)
	}
	if err := s.Set(KeyModel, "anthropic/claude-sonnet-4"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := s.Get(KeyModel, "x"); v != "anthropic/claude-sonnet-4" {
		t.Errorf("Get = %q", v)
	}
}

func TestApplyToEnvironment_SkipsEmpty(t *testing.T) {
	t.Setenv(KeyModel, "")
	t.Setenv(KeyAPIBase, "http://already-set:11434")

	err := ApplyToEnvironment(Record{KeyModel: "ollama/llama3", KeyAPIBase: ""})
	if err != nil {
		t.Fatalf("ApplyToEnvironment: %v", err)
	}
	if got := os.Getenv(KeyModel); got != "ollama/llama3" {
		t.Errorf("%s = %q", KeyModel, got)
	}
	if got := os.Getenv(KeyAPIBase); got != "http://already-set:11434" {
		t.Errorf("empty value overwrote %s: %q", KeyAPIBase, got)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv(EnvConfigDir, "/tmp/strix-cfg")
	d, err := DefaultDir()
	if err != nil || d != "/tmp/strix-cfg" {
		t.Errorf("DefaultDir = %q, %v", d, err)
	}

	t.Setenv(EnvConfigDir, "")
	t.Setenv("HOME", "/home/tester")
	d, err = DefaultDir()
	if err != nil || d != filepath.Join("/home/tester", ".strix") {
		t.Errorf("DefaultDir = %q, %v", d, err)
	}
}

func TestSettingsUpdate(t *testing.T) {
	current := Record{KeyModel: "openai/gpt-5", KeyAPIKey: "sk-old", KeySearchKey: "pplx-old"}
	cases := []struct {
		name   string
		values map[string]string
		want   Record
	}{
		{
			name:   "blank required keeps current",
			values: map[string]string{KeyModel: "  ", KeyAPIKey: ""},
			want:   Record{KeyModel: "openai/gpt-5", KeyAPIKey: "sk-old"},
		},
		{
			name:   "edits win and are trimmed",
			values: map[string]string{KeyModel: " ollama/qwen ", KeyAPIBase: "http://localhost:11434"},
			want:   Record{KeyModel: "ollama/qwen", KeyAPIKey: "sk-old", KeyAPIBase: "http://localhost:11434"},
		},
		{
			name:   "blank optional is not saved",
			values: map[string]string{KeySearchKey: ""},
			want:   Record{KeyModel: "openai/gpt-5", KeyAPIKey: "sk-old"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, SettingsUpdate(tc.values, current)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKnown(t *testing.T) {
	for _, k := range []string{KeyModel, KeyAPIKey, KeySearchKey, KeyAPIBase, KeyOpenAIBase, KeyLiteLLMURL, KeyOllamaBase} {
		if !Known(k) {
			t.Errorf("Known(%q) = false", k)
		}
	}
	if Known("CUSTOM_FLAG") {
		t.Error("Known(CUSTOM_FLAG) = true")
	}
}

func TestActiveEndpoint_Precedence(t *testing.T) {
	env := map[string]string{
		KeyOllamaBase: "http://ollama:11434",
		KeyLiteLLMURL: "http://litellm:4000",
	}
	getenv := func(k string) string { return env[k] }

	k, v := ActiveEndpoint(getenv)
	if k != KeyLiteLLMURL || v != "http://litellm:4000" {
		t.Errorf("ActiveEndpoint = %s=%s, want LITELLM_BASE_URL", k, v)
	}

	env[KeyAPIBase] = "  "
	env[KeyOpenAIBase] = "http://proxy/v1"
	if k, _ := ActiveEndpoint(getenv); k != KeyOpenAIBase {
		t.Errorf("blank LLM_API_BASE should be skipped, got %s", k)
	}

	if k, v := ActiveEndpoint(func(string) string { return "" }); k != "" || v != "" {
		t.Errorf("ActiveEndpoint on empty env = %q, %q", k, v)
	}
}
