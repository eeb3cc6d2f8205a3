package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mirzaaghazadeh/strix/internal/config"
)

var (
	accent = lipgloss.Color("#22c55e")

	containerStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(1, 2)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(accent)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

const (
	menuTitle     = "🦉 STRIX CYBERSECURITY AGENT"
	settingsTitle = "🦉 STRIX CONFIGURATION"
)

// Render draws the current state. input is the live text field supplied by
// the host for input and settings states; it is ignored elsewhere.
func (f *Flow) Render(input string) string {
	var body string
	switch f.state {
	case MenuDisplay:
		body = f.renderMenu()
	case AwaitingSingleInput, AwaitingMultiInput:
		body = f.renderInput(input)
	case SettingsScreen:
		body = f.renderSettings(input)
	case Resolving:
		body = titleStyle.Render(menuTitle) + "\n\nResolving targets..."
	default:
		return ""
	}
	return containerStyle.Render(body)
}

func (f *Flow) renderMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(menuTitle) + "\n")
	b.WriteString("Select a usage scenario:\n\n")
	for i, opt := range Options {
		line := fmt.Sprintf("[ ] %d. %s", i+1, opt.Title)
		if i == f.cursor {
			line = selectedStyle.Render(fmt.Sprintf("[x] %d. %s", i+1, opt.Title))
		}
		b.WriteString(line + "\n")
	}
	sel := Options[f.cursor]
	b.WriteString("\n" + sel.Description + "\n")
	b.WriteString(dimStyle.Render("Example: "+sel.Example) + "\n")
	f.writeNotice(&b)
	b.WriteString("\n" + dimStyle.Render("↑/↓: Navigate  |  Enter: Select  |  Q/Esc: Quit"))
	return b.String()
}

func (f *Flow) renderInput(input string) string {
	p, _ := f.Prompt()
	var b strings.Builder
	b.WriteString(titleStyle.Render(menuTitle) + "\n\n")
	b.WriteString(labelStyle.Render(p.Label) + "\n")
	b.WriteString(input + "\n")
	if p.Description != "" {
		b.WriteString(dimStyle.Render(p.Description) + "\n")
	}
	if f.state == AwaitingMultiInput && len(f.raws) > 0 {
		b.WriteString("\nCollected:\n")
		for _, r := range f.raws {
			b.WriteString("  • " + r + "\n")
		}
	}
	f.writeNotice(&b)
	b.WriteString("\n" + dimStyle.Render("Enter: Submit  |  Esc: Cancel"))
	return b.String()
}

func (f *Flow) renderSettings(input string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(settingsTitle) + "\n")
	b.WriteString("Manage your Strix settings\n")
	for i, fld := range config.Fields {
		b.WriteString("\n")
		label := fld.Label
		if i == f.focus {
			label = selectedStyle.Render("› " + label)
		} else {
			label = labelStyle.Render("  " + label)
		}
		b.WriteString(label + "\n")
		b.WriteString("  " + dimStyle.Render(fld.Description) + "\n")
		if i == f.focus {
			b.WriteString("  " + input + "\n")
		} else {
			b.WriteString("  " + fieldPreview(fld, f.values[fld.Key]) + "\n")
		}
	}
	f.writeNotice(&b)
	b.WriteString("\n" + dimStyle.Render("↑/↓: Navigate  |  Ctrl+S: Save  |  Esc: Back to Menu"))
	return b.String()
}

func (f *Flow) writeNotice(b *strings.Builder) {
	if f.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(f.notice) + "\n")
	}
}

func fieldPreview(fld config.Field, v string) string {
	switch {
	case v == "":
		return dimStyle.Render(fld.Placeholder)
	case fld.Secret:
		return strings.Repeat("•", min(len([]rune(v)), 12))
	default:
		return v
	}
}
