package workspace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mirzaaghazadeh/strix/internal/logging"
)

// GitRunner executes git with args. Tests swap it for a fake.
type GitRunner func(ctx context.Context, args ...string) error

// Cloner shallow-clones repository targets into <RunsDir>/<run>/workspace/<subdir>.
type Cloner struct {
	RunsDir string
	RunGit  GitRunner // nil means the git binary on PATH
}

// CloneDir is where Clone puts a repository.
func (c *Cloner) CloneDir(runName, subdir string) string {
	return filepath.Join(RunDir(c.RunsDir, runName), "workspace", subdir)
}

// Clone fetches repoURL and returns the local path. An existing checkout at
// the destination is reused.
func (c *Cloner) Clone(ctx context.Context, repoURL, runName, subdir string) (string, error) {
	if err := ValidateRunName(runName); err != nil {
		return "", err
	}
	if err := validateSubdir(subdir); err != nil {
		return "", err
	}
	dest := c.CloneDir(runName, subdir)
	log := logging.New("clone")

	if info, err := os.Stat(filepath.Join(dest, ".git")); err == nil && info.IsDir() {
		log.Info("reusing existing checkout", "repo", repoURL, "path", dest)
		return dest, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create workspace dir: %w", err)
	}

	run := c.RunGit
	if run == nil {
		run = execGit
	}
	log.Info("cloning", "repo", repoURL, "path", dest)
	if err := run(ctx, "clone", "--depth", "1", repoURL, dest); err != nil {
		return "", fmt.Errorf("clone %s: %w", repoURL, err)
	}
	return dest, nil
}

func validateSubdir(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid workspace subdir %q", name)
	}
	return nil
}

func execGit(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return err
		}
		return fmt.Errorf("%w: %s", err, msg)
	}
	return nil
}
