// Package orchestrate runs the pre-flight checklist for a scan and hands the
// finished run configuration to the scan engine.
package orchestrate

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mirzaaghazadeh/strix/internal/target"
	"github.com/mirzaaghazadeh/strix/internal/workspace"
)

// RunConfig is what a scan is asked to do. It is built from flags or by the
// interactive menu and is not modified once the pipeline starts; the
// pipeline works on a copy.
type RunConfig struct {
	RunName        string
	Targets        []target.Descriptor
	Instruction    string
	NonInteractive bool
}

// ErrNoTargets is returned for a RunConfig without targets.
var ErrNoTargets = errors.New("no targets to scan")

// Validate checks the invariants the pipeline relies on.
func (c RunConfig) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	if c.RunName != "" {
		return workspace.ValidateRunName(c.RunName)
	}
	return nil
}

// Clone returns a deep copy.
func (c RunConfig) Clone() RunConfig {
	out := c
	out.Targets = make([]target.Descriptor, len(c.Targets))
	for i, t := range c.Targets {
		out.Targets[i] = t.Clone()
	}
	return out
}

// GenerateRunName returns "<first-target-slug>_<6 hex chars>".
func GenerateRunName(targets []target.Descriptor) string {
	base := "strix"
	if len(targets) > 0 {
		base = targets[0].WorkspaceSubdir
		if base == "" {
			base = workspace.Slug(targets[0])
		}
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return base + "_" + id[:6]
}
