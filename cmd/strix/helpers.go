package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mirzaaghazadeh/strix/internal/display"
	"github.com/mirzaaghazadeh/strix/internal/docker"
	"github.com/mirzaaghazadeh/strix/internal/orchestrate"
	"github.com/mirzaaghazadeh/strix/internal/preflight"
)

// envOr returns $key, or def when unset or blank.
func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envDuration parses $key as a Go duration. Unset yields zero so the
// pipeline default applies.
func envDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}

// newPipeline wires the real collaborators from the runtime environment knobs.
func newPipeline(stdin io.Reader, stdout, stderr io.Writer) (*orchestrate.Pipeline, error) {
	warmup, err := envDuration("STRIX_WARMUP_TIMEOUT")
	if err != nil {
		return nil, err
	}
	clone, err := envDuration("STRIX_CLONE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	p := &orchestrate.Pipeline{
		Image:         envOr("STRIX_IMAGE", docker.DefaultImage),
		RunsDir:       envOr("STRIX_RUNS_DIR", orchestrate.DefaultRunsDir),
		WarmupTimeout: warmup,
		CloneTimeout:  clone,
		Out:           stdout,
		Scanner: &orchestrate.ProcessScanner{
			Command: envOr("STRIX_ENGINE_CMD", orchestrate.DefaultEngineCommand),
			Stdin:   stdin,
			Stdout:  stdout,
			Stderr:  stderr,
		},
	}
	if configurePipeline != nil {
		configurePipeline(p)
	}
	return p, nil
}

// renderStageError turns a failed gate into the panel shown on stderr.
func renderStageError(se *orchestrate.StageError) string {
	var (
		missing *preflight.MissingCredentialError
		conn    *preflight.LLMConnectivityError
		engine  *docker.EngineUnavailableError
		pull    *docker.ImagePullError
	)
	title, body := "", ""
	switch {
	case errors.As(se, &missing):
		title = "🛡️  STRIX CONFIGURATION ERROR"
		body = preflight.RenderMissing(preflight.Validate(os.Getenv))
	case errors.As(se, &conn):
		body = preflight.RenderConnectivity(conn)
	case errors.As(se, &engine):
		body = "❌ DOCKER NOT AVAILABLE\n\n" + engine.Err.Error() + "\n\n" +
			"Please install Docker, start the daemon, and ensure the 'docker' command\n" +
			"is available or DOCKER_HOST points at a reachable engine."
	case errors.As(se, &pull):
		title = "🛡️  DOCKER PULL ERROR"
		body = "❌ FAILED TO PULL IMAGE\n\nCould not download: " + pull.Image + "\n" + pull.Err.Error()
	default:
		body = "❌ " + strings.ToUpper(display.Stage(se.Stage)) + " FAILED\n\n" + se.Err.Error()
	}
	body += "\n\nStopped at: " + display.StagePath(stagesThrough(se.Stage))
	return display.ErrorPanel(title, body)
}

// stagesThrough lists the stages up to and including stage.
func stagesThrough(stage string) []string {
	for i, s := range orchestrate.StageOrder {
		if s == stage {
			return orchestrate.StageOrder[:i+1]
		}
	}
	return []string{stage}
}
