// Package config persists user settings in a dotenv file under the user's
// config directory and projects them into the process environment.
//
// The store is not locked. Two runs saving at the same time race and the
// last writer wins.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Setting keys.
const (
	KeyModel      = "STRIX_LLM"
	KeyAPIKey     = "LLM_API_KEY"
	KeySearchKey  = "PERPLEXITY_API_KEY"
	KeyAPIBase    = "LLM_API_BASE"
	KeyOpenAIBase = "OPENAI_API_BASE"
	KeyLiteLLMURL = "LITELLM_BASE_URL"
	KeyOllamaBase = "OLLAMA_API_BASE"
)

// EnvConfigDir overrides the default config directory.
const EnvConfigDir = "STRIX_CONFIG_DIR"

const fileName = ".env"

var (
	RequiredKeys = []string{KeyModel, KeyAPIKey}
	// EndpointKeys are checked in this order; the first non-empty one wins.
	EndpointKeys = []string{KeyAPIBase, KeyOpenAIBase, KeyLiteLLMURL, KeyOllamaBase}
	OptionalKeys = append([]string{KeySearchKey}, EndpointKeys...)
)

// Record is the persisted key/value set. Keys outside the known tables are
// kept as-is.
type Record map[string]string

// Keys returns the record's keys, sorted.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Known reports whether key is one of the recognized setting keys.
func Known(key string) bool {
	for _, k := range RequiredKeys {
		if k == key {
			return true
		}
	}
	for _, k := range OptionalKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ActiveEndpoint returns the first endpoint override with a non-empty value.
func ActiveEndpoint(getenv func(string) string) (key, value string) {
	for _, k := range EndpointKeys {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return k, v
		}
	}
	return "", ""
}

// Store reads and writes <Dir>/.env.
type Store struct {
	Dir string
}

// DefaultDir is $STRIX_CONFIG_DIR, else ~/.strix.
func DefaultDir() (string, error) {
	if d := os.Getenv(EnvConfigDir); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".strix"), nil
}

// Path is the dotenv file backing the store.
func (s *Store) Path() string {
	return filepath.Join(s.Dir, fileName)
}

// Load returns the stored record. A missing file yields an empty record.
func (s *Store) Load() (Record, error) {
	m, err := godotenv.Read(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", s.Path(), err)
	}
	return Record(m), nil
}

// Save merges partial into the stored record and writes it back. Keys not in
// partial are left untouched; empty values are written as given.
func (s *Store) Save(partial Record) error {
	rec, err := s.Load()
	if err != nil {
		return err
	}
	for k, v := range partial {
		rec[k] = v
	}

	data, err := encode(rec)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", s.Path(), err)
	}
	return nil
}

// encode writes one quoted KEY=value line per key, sorted. Single quotes keep
// the value literal on read; values holding a single quote fall back to
// double quotes with backslash and dollar escaped.
func encode(rec Record) ([]byte, error) {
	var b strings.Builder
	for _, k := range rec.Keys() {
		v := rec[k]
		switch {
		case strings.HasSuffix(v, `\`):
			return nil, fmt.Errorf("%s: value may not end with a backslash", k)
		case !strings.Contains(v, "'"):
			fmt.Fprintf(&b, "%s='%s'\n", k, v)
		case strings.Contains(v, `"`):
			return nil, fmt.Errorf("%s: value may not contain both single and double quotes", k)
		default:
			fmt.Fprintf(&b, "%s=\"%s\"\n", k, dquoteEscaper.Replace(v))
		}
	}
	return []byte(b.String()), nil
}

var dquoteEscaper = strings.NewReplacer(`\`, `\\`, "$", `\$`)

// Get returns the stored value for key, or def when unset or empty.
func (s *Store) Get(key, def string) (string, error) {
	rec, err := s.Load()
	if err != nil {
		return def, err
	}
	if v := rec[key]; v != "" {
		return v, nil
	}
	return def, nil
}

// Set stores a single key.
func (s *Store) Set(key, value string) error {
	return s.Save(Record{key: value})
}

// ApplyToEnvironment exports every non-empty value of rec.
func ApplyToEnvironment(rec Record) error {
	for _, k := range rec.Keys() {
		v := rec[k]
		if v == "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}
