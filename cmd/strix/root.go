package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mirzaaghazadeh/strix/internal/config"
	"github.com/mirzaaghazadeh/strix/internal/display"
	"github.com/mirzaaghazadeh/strix/internal/logging"
	"github.com/mirzaaghazadeh/strix/internal/menu"
	"github.com/mirzaaghazadeh/strix/internal/orchestrate"
	"github.com/mirzaaghazadeh/strix/internal/target"
	"github.com/mirzaaghazadeh/strix/internal/workspace"
)

// version is set at build time via -ldflags.
var version = "dev"

const examples = `  # Web application penetration test
  strix --target https://example.com

  # GitHub repository analysis
  strix --target https://github.com/user/repo
  strix --target git@github.com:user/repo.git

  # Local code analysis
  strix --target ./my-project

  # Domain penetration test
  strix --target example.com

  # Multiple targets (e.g., white-box testing with source and deployed app)
  strix --target https://github.com/user/repo --target https://example.com

  # Custom instructions
  strix --target example.com --instruction "Focus on authentication vulnerabilities"`

var rootFlags struct {
	targets        []string
	instruction    string
	runName        string
	nonInteractive bool

	logLevel  string
	logFormat string
	configDir string
}

// Seams replaced by tests.
var (
	stdinIsTerminal = func(r io.Reader) bool {
		f, ok := r.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}
	runMenu           = menu.Run
	configurePipeline func(*orchestrate.Pipeline)
)

func newRootCmd(stdin io.Reader) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "strix",
		Short:   "Strix Multi-Agent Cybersecurity Penetration Testing Tool",
		Long:    "Strix validates targets, credentials, the sandbox image and the model\nconnection, then hands a prepared run to the scan engine.",
		Example: examples,
		Version: version,
		Args:    cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, stdin)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", os.Getenv("STRIX_LOG_LEVEL"), "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", envOr("STRIX_LOG_FORMAT", "text"), "Log format: text or json")
	pf.StringVar(&rootFlags.configDir, "config-dir", "", "Configuration directory (default $STRIX_CONFIG_DIR or ~/.strix)")

	f := cmd.Flags()
	f.StringArrayVarP(&rootFlags.targets, "target", "t", nil,
		"Target to test (URL, repository, local directory path, or domain name). Can be specified multiple times for multi-target scans.")
	f.StringVar(&rootFlags.instruction, "instruction", "",
		"Custom instructions for the penetration test (e.g. 'Focus on IDOR and XSS')")
	f.StringVar(&rootFlags.runName, "run-name", "", "Custom name for this penetration test run")
	f.BoolVarP(&rootFlags.nonInteractive, "non-interactive", "n", false,
		"Run in non-interactive mode (no TUI, exits on completion)")

	cmd.AddCommand(newConfigCmd())
	return cmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(rootFlags.logLevel)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	switch strings.ToLower(rootFlags.logFormat) {
	case "text", "json":
	default:
		return &ExitError{Code: 1, Message: fmt.Sprintf("invalid --log-format %q: must be 'text' or 'json'", rootFlags.logFormat)}
	}
	logging.Init(logging.Options{Level: level, Format: rootFlags.logFormat, Writer: cmd.ErrOrStderr()})
	return nil
}

func configStore() (*config.Store, error) {
	if rootFlags.configDir != "" {
		return &config.Store{Dir: rootFlags.configDir}, nil
	}
	dir, err := config.DefaultDir()
	if err != nil {
		return nil, err
	}
	return &config.Store{Dir: dir}, nil
}

func runScan(cmd *cobra.Command, stdin io.Reader) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	log := logging.New("cli")

	store, err := configStore()
	if err != nil {
		return startupError("❌ CONFIGURATION ERROR\n\n" + err.Error())
	}
	rec, err := store.Load()
	if err != nil {
		return startupError("❌ CONFIGURATION ERROR\n\n" + err.Error())
	}
	if err := config.ApplyToEnvironment(rec); err != nil {
		return startupError("❌ CONFIGURATION ERROR\n\n" + err.Error())
	}

	cfg, err := collectRunConfig(cmd, store, stdin)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	log.Debug("run config ready", "targets", len(cfg.Targets), "non_interactive", cfg.NonInteractive)

	p, err := newPipeline(stdin, out, cmd.ErrOrStderr())
	if err != nil {
		return startupError("❌ CONFIGURATION ERROR\n\n" + err.Error())
	}
	outcome, err := p.Run(ctx, *cfg)
	if err != nil {
		var se *orchestrate.StageError
		if errors.As(err, &se) {
			return &ExitError{Code: 1, Message: renderStageError(se)}
		}
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, orchestrate.RenderCompletion(outcome))
	if outcome.ExitCode != 0 {
		return &ExitError{Code: outcome.ExitCode}
	}
	return nil
}

// collectRunConfig builds the run from flags, or from the interactive menu
// when no target was given. A nil config with a nil error means the user
// quit the menu.
func collectRunConfig(cmd *cobra.Command, store *config.Store, stdin io.Reader) (*orchestrate.RunConfig, error) {
	if rootFlags.runName != "" {
		if err := workspace.ValidateRunName(rootFlags.runName); err != nil {
			return nil, startupError("❌ INVALID RUN NAME\n\n" + err.Error())
		}
	}
	if len(rootFlags.targets) > 0 {
		ds, err := target.ResolveAll(rootFlags.targets)
		if err != nil {
			return nil, invalidTarget(err)
		}
		return &orchestrate.RunConfig{
			RunName:        rootFlags.runName,
			Targets:        workspace.Allocate(ds),
			Instruction:    rootFlags.instruction,
			NonInteractive: rootFlags.nonInteractive,
		}, nil
	}

	if rootFlags.nonInteractive {
		return nil, startupError("❌ NO TARGETS\n\nNon-interactive mode needs at least one --target.")
	}
	if !stdinIsTerminal(stdin) {
		return nil, &ExitError{Code: 1, Message: "no --target given and stdin is not a terminal\n\nRun 'strix --help' for usage."}
	}

	cfg, err := runMenu(cmd.Context(), store, stdin, cmd.OutOrStdout())
	switch {
	case errors.Is(err, menu.ErrCancelled):
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil, nil
	case err != nil:
		var inv *target.InvalidTargetError
		if errors.As(err, &inv) {
			return nil, invalidTarget(inv)
		}
		return nil, err
	}
	cfg.RunName = rootFlags.runName
	if cfg.Instruction == "" {
		cfg.Instruction = rootFlags.instruction
	}
	return cfg, nil
}

func invalidTarget(err error) error {
	body := "❌ INVALID TARGET\n\n" + err.Error()
	var inv *target.InvalidTargetError
	if errors.As(err, &inv) {
		body = fmt.Sprintf("❌ INVALID TARGET\n\nInvalid target '%s'\n%s\n\n"+
			"Targets may be a URL, a repository, a local directory path, or a domain name.",
			inv.Target, inv.Reason)
	}
	return startupError(body)
}

func startupError(body string) error {
	return &ExitError{Code: 1, Message: display.ErrorPanel("", body)}
}
