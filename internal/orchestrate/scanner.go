package orchestrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
)

// DefaultEngineCommand is the scan engine executable when STRIX_ENGINE_CMD is unset.
const DefaultEngineCommand = "strix-engine"

// ResultsFile is written by the scan engine into the run directory.
const ResultsFile = "results.json"

// Report is one finding reported by the scan engine.
type Report struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Target   string `json:"target,omitempty"`
}

// ScanResult is the aggregate the engine returns.
type ScanResult struct {
	ScanCompleted        bool     `json:"scan_completed"`
	VulnerabilityReports []Report `json:"vulnerability_reports"`
}

// Scanner is the scan engine entry point.
type Scanner interface {
	Scan(ctx context.Context, cfg RunConfig, manifestPath string) (ScanResult, error)
}

// ProcessScanner runs the engine as a child process with the manifest path
// as its only argument, then reads <run dir>/results.json.
type ProcessScanner struct {
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

func (s *ProcessScanner) Scan(ctx context.Context, cfg RunConfig, manifestPath string) (ScanResult, error) {
	name := s.Command
	if name == "" {
		name = DefaultEngineCommand
	}
	runDir := filepath.Dir(manifestPath)

	cmd := exec.CommandContext(ctx, name, manifestPath)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	cmd.Env = append(os.Environ(),
		"STRIX_RUN_NAME="+cfg.RunName,
		"STRIX_RUN_DIR="+runDir,
	)
	if cfg.NonInteractive {
		cmd.Env = append(cmd.Env, "STRIX_NON_INTERACTIVE=1")
	}
	runErr := cmd.Run()

	res, readErr := ReadResults(filepath.Join(runDir, ResultsFile))
	if runErr != nil {
		return res, fmt.Errorf("scan engine %s: %w", name, runErr)
	}
	return res, readErr
}

// ReadResults loads a results file. A missing file means the session ended
// before the engine wrote anything and yields an empty, incomplete result.
func ReadResults(path string) (ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ScanResult{}, nil
		}
		return ScanResult{}, fmt.Errorf("read scan results: %w", err)
	}
	var res ScanResult
	if err := json.Unmarshal(data, &res); err != nil {
		return ScanResult{}, fmt.Errorf("parse scan results %s: %w", path, err)
	}
	return res, nil
}
