// Package menu is the interactive front end: a preset menu, target prompts,
// and a settings screen, all driving a single state machine that produces
// the same RunConfig the command-line flags would.
package menu

// Arity says how many targets a preset collects.
type Arity int

const (
	Single Arity = iota
	Multi
)

// FollowUp selects the optional prompts asked after the target.
type FollowUp int

const (
	NoFollowUp FollowUp = iota
	AskInstruction
	AskCredentials
)

// Prompt describes one text input.
type Prompt struct {
	Label       string
	Description string
	AllowEmpty  bool
}

// Option is one entry of the preset catalog.
type Option struct {
	Title       string
	Description string
	Example     string
	// Instruction is a preset instruction; when set, follow-up prompts are skipped.
	Instruction string
	Arity       Arity
	IsSettings  bool
	Target      Prompt
	FollowUp    FollowUp
}

var multiTarget = Prompt{Label: "Enter target (empty line to finish)", AllowEmpty: true}

// Options is the menu catalog, in display order.
var Options = []Option{
	{
		Title:       "Local codebase analysis",
		Description: "Analyze a local directory for security vulnerabilities",
		Example:     "strix --target ./app-directory",
		Target:      Prompt{Label: "Enter local directory path", Description: "Example: ./app-directory or /path/to/project"},
	},
	{
		Title:       "Repository security review",
		Description: "Clone and analyze a GitHub repository",
		Example:     "strix --target https://github.com/org/repo",
		Target:      Prompt{Label: "Enter repository URL", Description: "Example: https://github.com/org/repo or git@github.com:org/repo.git"},
	},
	{
		Title:       "Web application assessment",
		Description: "Perform penetration testing on a deployed web application",
		Example:     "strix --target https://your-app.com",
		Target:      Prompt{Label: "Enter web application URL", Description: "Example: https://your-app.com or http://localhost:3000"},
	},
	{
		Title:       "Multi-target white-box testing",
		Description: "Test source code + deployed app simultaneously",
		Example:     "strix -t https://github.com/org/app -t https://your-app.com",
		Arity:       Multi,
		Target:      multiTarget,
	},
	{
		Title:       "Test multiple environments",
		Description: "Test dev, staging, and production environments simultaneously",
		Example:     "strix -t https://dev.your-app.com -t https://staging.your-app.com -t https://prod.your-app.com",
		Arity:       Multi,
		Target:      multiTarget,
	},
	{
		Title:       "Focused testing with instructions",
		Description: "Prioritize specific vulnerability types or testing approaches",
		Example:     `strix --target api.your-app.com --instruction "Prioritize authentication and authorization testing"`,
		Target:      Prompt{Label: "Enter target URL", Description: "Example: api.your-app.com or https://api.example.com"},
		FollowUp:    AskInstruction,
	},
	{
		Title:       "Testing with credentials",
		Description: "Test with provided credentials, focus on privilege escalation",
		Example:     `strix --target https://your-app.com --instruction "Test with credentials: testuser/testpass. Focus on privilege escalation and access control bypasses."`,
		Target:      Prompt{Label: "Enter target URL", Description: "Example: https://your-app.com or http://localhost:8080"},
		FollowUp:    AskCredentials,
	},
	{
		Title:       "Configuration",
		Description: "Manage Strix settings (API keys, model, etc.)",
		Example:     "Configure STRIX_LLM, LLM_API_KEY, PERPLEXITY_API_KEY",
		IsSettings:  true,
	},
}

var (
	instructionPrompt = Prompt{
		Label:       "Enter instructions (optional)",
		Description: "Prioritize specific vulnerability types or testing approaches",
		AllowEmpty:  true,
	}
	credentialsPrompt = Prompt{
		Label:       "Enter credentials (format: username/password)",
		Description: "Example: admin:password123 or testuser/testpass",
		AllowEmpty:  true,
	}
	extraInstructionPrompt = Prompt{
		Label:       "Enter additional instructions (optional)",
		Description: "Focus on privilege escalation and access control bypasses",
		AllowEmpty:  true,
	}
)
