// Package display provides human-readable names for machine codes and the
// bordered panels used for user-facing diagnostics.
//
// Rule: code is for machines, words are for humans.
// Keep raw codes in manifests, logs, and equality comparisons.
package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// --- Target Kinds ---

var kinds = map[string]string{
	"local_code":      "Local Code",
	"repository":      "Repository",
	"web_application": "Web Application",
	"domain":          "Domain",
}

// Kind returns the human-readable name for a target kind code.
// Unknown codes are returned as-is.
func Kind(code string) string {
	if name, ok := kinds[code]; ok {
		return name
	}
	return code
}

// --- Pipeline Stages ---

var stages = map[string]string{
	"resolve":     "Target Resolution",
	"engine":      "Container Engine",
	"credentials": "Credentials",
	"image":       "Sandbox Image",
	"warmup":      "LLM Warm-up",
	"clone":       "Repository Clone",
	"manifest":    "Run Manifest",
	"scan":        "Scan",
}

// Stage returns the human-readable name for a pipeline stage code.
func Stage(code string) string {
	if name, ok := stages[code]; ok {
		return name
	}
	return code
}

// StagePath converts stage codes to "Container Engine → Credentials → ...".
func StagePath(codes []string) string {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = Stage(c)
	}
	return strings.Join(names, " → ")
}

// --- Panels ---

// Tone selects a panel's border and title color.
type Tone int

const (
	Info Tone = iota
	Success
	Failure
)

var toneColors = map[Tone]lipgloss.Color{
	Info:    lipgloss.Color("6"),
	Success: lipgloss.Color("2"),
	Failure: lipgloss.Color("1"),
}

// Panel renders body inside a rounded border with a bold title line.
func Panel(title, body string, tone Tone) string {
	color := toneColors[tone]
	head := lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2)
	return box.Render(head + "\n\n" + strings.TrimRight(body, "\n"))
}

// ErrorPanel is a Failure panel with the standard startup title.
func ErrorPanel(title, body string) string {
	if title == "" {
		title = "🛡️  STRIX STARTUP ERROR"
	}
	return Panel(title, body, Failure)
}
