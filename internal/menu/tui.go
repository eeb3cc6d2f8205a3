package menu

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mirzaaghazadeh/strix/internal/orchestrate"
)

// Run hosts the flow in a full-screen terminal program and returns the
// RunConfig the user assembled. Quitting from the menu yields ErrCancelled.
func Run(ctx context.Context, store SettingsStore, in io.Reader, out io.Writer) (*orchestrate.RunConfig, error) {
	m := newModel(NewFlow(store, nil))
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}
	return m.flow.Result()
}

type resolveMsg struct{}

// promptKey identifies the text prompt on screen; the input is reset
// whenever it changes.
type promptKey struct {
	state State
	step  int
	raws  int
	focus int
}

type model struct {
	flow  *Flow
	input textinput.Model
	key   promptKey
}

func newModel(f *Flow) *model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 1024
	ti.Width = 64
	ti.Focus()
	return &model{flow: f, input: ti, key: currentKey(f)}
}

func currentKey(f *Flow) promptKey {
	return promptKey{state: f.state, step: f.step, raws: len(f.raws), focus: f.focus}
}

func (m *model) Init() tea.Cmd { return textinput.Blink }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resolveMsg:
		m.flow.Resolve()
		return m, tea.Quit
	case tea.KeyMsg:
		if ev, ok := m.keyEvent(msg); ok {
			m.flow.Update(ev)
			return m, m.sync()
		}
	}
	if !m.inputActive() {
		return m, nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.flow.State() == SettingsScreen && m.input.Value() != before {
		m.flow.Update(EditField{Value: m.input.Value()})
	}
	return m, cmd
}

func (m *model) View() string {
	return m.flow.Render(m.input.View())
}

func (m *model) inputActive() bool {
	switch m.flow.State() {
	case AwaitingSingleInput, AwaitingMultiInput, SettingsScreen:
		return true
	}
	return false
}

func (m *model) keyEvent(k tea.KeyMsg) (Event, bool) {
	s := k.String()
	switch m.flow.State() {
	case MenuDisplay:
		switch s {
		case "up", "k":
			return MoveUp{}, true
		case "down", "j":
			return MoveDown{}, true
		case "enter":
			return Select{}, true
		case "q", "esc", "ctrl+c":
			return Cancel{}, true
		}
	case AwaitingSingleInput, AwaitingMultiInput:
		switch s {
		case "enter":
			return Submit{Value: m.input.Value()}, true
		case "esc", "ctrl+c":
			return Cancel{}, true
		}
	case SettingsScreen:
		switch s {
		case "up", "shift+tab":
			return FocusPrev{}, true
		case "down", "tab":
			return FocusNext{}, true
		case "ctrl+s":
			return SaveSettings{}, true
		case "esc", "ctrl+c":
			return Cancel{}, true
		}
	}
	return nil, false
}

// sync reacts to a state change: it schedules resolution, quits on a
// terminal state, or resets the input for a new prompt.
func (m *model) sync() tea.Cmd {
	switch st := m.flow.State(); {
	case st == Resolving:
		return func() tea.Msg { return resolveMsg{} }
	case st.Terminal():
		return tea.Quit
	}
	k := currentKey(m.flow)
	if k == m.key {
		return nil
	}
	m.key = k
	m.input.Reset()
	m.input.Placeholder = ""
	m.input.EchoMode = textinput.EchoNormal
	if m.flow.State() == SettingsScreen {
		fld := m.flow.Focus()
		m.input.SetValue(m.flow.FieldValue(fld.Key))
		m.input.Placeholder = fld.Placeholder
		if fld.Secret {
			m.input.EchoMode = textinput.EchoPassword
		}
	}
	return textinput.Blink
}
