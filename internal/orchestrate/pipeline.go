package orchestrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/mirzaaghazadeh/strix/internal/config"
	"github.com/mirzaaghazadeh/strix/internal/display"
	"github.com/mirzaaghazadeh/strix/internal/docker"
	"github.com/mirzaaghazadeh/strix/internal/format"
	"github.com/mirzaaghazadeh/strix/internal/llm"
	"github.com/mirzaaghazadeh/strix/internal/logging"
	"github.com/mirzaaghazadeh/strix/internal/preflight"
	"github.com/mirzaaghazadeh/strix/internal/target"
	"github.com/mirzaaghazadeh/strix/internal/workspace"
)

// Stage codes, in execution order.
const (
	StageResolve     = "resolve"
	StageEngine      = "engine"
	StageCredentials = "credentials"
	StageImage       = "image"
	StageWarmup      = "warmup"
	StageClone       = "clone"
	StageManifest    = "manifest"
	StageScan        = "scan"
)

// StageOrder lists every stage in the order Run visits them.
var StageOrder = []string{
	StageResolve, StageEngine, StageCredentials, StageImage,
	StageWarmup, StageClone, StageManifest, StageScan,
}

// DefaultCloneTimeout bounds a single repository clone.
const DefaultCloneTimeout = 10 * time.Minute

// DefaultRunsDir holds one directory per run.
const DefaultRunsDir = "agent_runs"

// StageError reports which gate stopped the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", display.Stage(e.Stage), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Cloner fetches a repository into the run workspace.
type Cloner interface {
	Clone(ctx context.Context, repoURL, runName, subdir string) (string, error)
}

// Pipeline holds the collaborators of a run. Zero-valued fields fall back to
// the real implementations (environment, PATH lookup, Docker SDK, HTTP LLM
// clients, git, the engine process).
type Pipeline struct {
	Getenv    func(string) string
	LookPath  func(string) (string, error)
	NewEngine func() (docker.Engine, error)
	NewLLM    func(ctx context.Context, getenv func(string) string) (llm.Client, error)
	Cloner    Cloner
	Scanner   Scanner

	Image         string
	RunsDir       string
	WarmupTimeout time.Duration
	CloneTimeout  time.Duration

	// Out receives the checklist and pull progress.
	Out io.Writer
	Now func() time.Time
}

// Outcome is a finished run.
type Outcome struct {
	Config       RunConfig
	Result       ScanResult
	RunDir       string
	ManifestPath string
	Elapsed      time.Duration
	ExitCode     int
}

// Run executes the gates strictly in order and stops at the first failure,
// returning a *StageError. Nothing after a failed gate runs.
func (p *Pipeline) Run(ctx context.Context, in RunConfig) (*Outcome, error) {
	p.defaults()
	log := logging.New("orchestrate")
	start := p.Now()

	if err := in.Validate(); err != nil {
		return nil, &StageError{Stage: StageResolve, Err: err}
	}
	cfg := in.Clone()
	if cfg.RunName == "" {
		cfg.RunName = GenerateRunName(cfg.Targets)
	}
	log.Debug("run starting", "run", cfg.RunName, "targets", len(cfg.Targets), "non_interactive", cfg.NonInteractive)

	gates := []struct {
		stage string
		fn    func(context.Context, *RunConfig) error
	}{
		{StageEngine, p.checkEngine},
		{StageCredentials, p.checkCredentials},
		{StageImage, p.provisionImage},
		{StageWarmup, p.warmup},
		{StageClone, p.cloneRepositories},
	}
	for _, g := range gates {
		log.Debug("stage start", "stage", g.stage)
		if err := g.fn(ctx, &cfg); err != nil {
			log.Debug("stage failed", "stage", g.stage, "error", err)
			return nil, &StageError{Stage: g.stage, Err: err}
		}
		log.Debug("stage ok", "stage", g.stage)
		fmt.Fprintf(p.Out, "%s %s\n", format.BoolMark(true), display.Stage(g.stage))
	}

	runDir := workspace.RunDir(p.RunsDir, cfg.RunName)
	manifestPath, err := workspace.WriteManifest(runDir, workspace.Manifest{
		RunName:        cfg.RunName,
		Instruction:    cfg.Instruction,
		NonInteractive: cfg.NonInteractive,
		CreatedAt:      start.UTC(),
		Targets:        cfg.Targets,
	})
	if err != nil {
		return nil, &StageError{Stage: StageManifest, Err: err}
	}

	log.Info("handing off to scan engine", "run", cfg.RunName, "manifest", manifestPath)
	res, err := p.Scanner.Scan(ctx, cfg, manifestPath)
	if err != nil {
		return nil, &StageError{Stage: StageScan, Err: err}
	}

	out := &Outcome{
		Config:       cfg,
		Result:       res,
		RunDir:       runDir,
		ManifestPath: manifestPath,
		Elapsed:      p.Now().Sub(start),
		ExitCode:     ExitCode(cfg, res),
	}
	log.Debug("run finished", "run", cfg.RunName, "completed", res.ScanCompleted,
		"reports", len(res.VulnerabilityReports), "exit", out.ExitCode)
	return out, nil
}

func (p *Pipeline) checkEngine(_ context.Context, _ *RunConfig) error {
	return docker.CheckInstalled(p.LookPath, p.Getenv)
}

func (p *Pipeline) checkCredentials(_ context.Context, _ *RunConfig) error {
	return preflight.Validate(p.Getenv).Err()
}

func (p *Pipeline) provisionImage(ctx context.Context, _ *RunConfig) error {
	eng, err := p.NewEngine()
	if err != nil {
		return &docker.EngineUnavailableError{Err: err}
	}
	if c, ok := eng.(io.Closer); ok {
		defer c.Close()
	}
	prov := &docker.Provisioner{Engine: eng, Out: p.Out}
	if err := prov.CheckEngine(ctx); err != nil {
		return err
	}
	return prov.EnsureImage(ctx, p.Image)
}

func (p *Pipeline) warmup(ctx context.Context, _ *RunConfig) error {
	client, err := p.NewLLM(ctx, p.Getenv)
	if err != nil {
		return &preflight.LLMConnectivityError{Model: p.Getenv(config.KeyModel), Endpoint: "-", Err: err}
	}
	return preflight.Warmup(ctx, client, p.WarmupTimeout)
}

func (p *Pipeline) cloneRepositories(ctx context.Context, cfg *RunConfig) error {
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if t.Kind != target.Repository {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, p.CloneTimeout)
		path, err := p.Cloner.Clone(cctx, t.Details[target.DetailRepo], cfg.RunName, t.WorkspaceSubdir)
		cancel()
		if err != nil {
			return err
		}
		t.Details[target.DetailClonedPath] = path
	}
	return nil
}

func (p *Pipeline) defaults() {
	if p.Getenv == nil {
		p.Getenv = os.Getenv
	}
	if p.LookPath == nil {
		p.LookPath = exec.LookPath
	}
	if p.NewEngine == nil {
		p.NewEngine = func() (docker.Engine, error) {
			e, err := docker.NewEngine()
			if err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	if p.NewLLM == nil {
		p.NewLLM = llm.NewFromEnv
	}
	if p.RunsDir == "" {
		p.RunsDir = DefaultRunsDir
	}
	if p.Cloner == nil {
		p.Cloner = &workspace.Cloner{RunsDir: p.RunsDir}
	}
	if p.Scanner == nil {
		p.Scanner = &ProcessScanner{Command: DefaultEngineCommand, Stdout: os.Stdout, Stderr: os.Stderr}
	}
	if p.Image == "" {
		p.Image = docker.DefaultImage
	}
	if p.WarmupTimeout == 0 {
		p.WarmupTimeout = preflight.DefaultWarmupTimeout
	}
	if p.CloneTimeout == 0 {
		p.CloneTimeout = DefaultCloneTimeout
	}
	if p.Out == nil {
		p.Out = io.Discard
	}
	if p.Now == nil {
		p.Now = time.Now
	}
}

// ExitCode is 2 for a non-interactive run that produced findings, else 0.
func ExitCode(cfg RunConfig, res ScanResult) int {
	if cfg.NonInteractive && len(res.VulnerabilityReports) > 0 {
		return 2
	}
	return 0
}
