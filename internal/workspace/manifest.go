package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mirzaaghazadeh/strix/internal/target"
)

// ManifestFile is the name of the manifest written into each run directory.
const ManifestFile = "run.yaml"

// Manifest records what a run was asked to do. It is written before the
// scan engine starts so the engine and later tooling can read it back.
type Manifest struct {
	RunName        string              `json:"run_name" yaml:"run_name"`
	Instruction    string              `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	NonInteractive bool                `json:"non_interactive" yaml:"non_interactive"`
	CreatedAt      time.Time           `json:"created_at" yaml:"created_at"`
	Targets        []target.Descriptor `json:"targets" yaml:"targets"`
}

// ErrInvalidRunName is wrapped by ValidateRunName.
var ErrInvalidRunName = errors.New("invalid run name")

// ValidateRunName rejects names that would resolve outside the runs
// directory: empty, dot segments, or anything with a path separator.
func ValidateRunName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w %q: must be a single directory name, not '.' or '..', without '/' or '\\'", ErrInvalidRunName, name)
	}
	return nil
}

// RunDir is <runsDir>/<runName>.
func RunDir(runsDir, runName string) string {
	return filepath.Join(runsDir, runName)
}

// WriteManifest writes m as YAML into dir (created if missing) and returns
// the file path.
func WriteManifest(dir string, m Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// LoadManifest reads a manifest (YAML or JSON).
// Format is detected by extension (.yaml/.yml, .json) or by the first non-space byte.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data, filepath.Ext(path))
}

// ParseManifest decodes data. ext is a format hint; empty means detect from content.
func ParseManifest(data []byte, ext string) (*Manifest, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		ext = ".json"
	}

	var m Manifest
	if ext == ".json" {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest json: %w", err)
		}
		return &m, nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest yaml: %w", err)
	}
	return &m, nil
}
