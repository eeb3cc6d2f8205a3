package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mirzaaghazadeh/strix/internal/config"
	"github.com/mirzaaghazadeh/strix/internal/logging"
	"github.com/mirzaaghazadeh/strix/internal/orchestrate"
	"github.com/mirzaaghazadeh/strix/internal/target"
	"github.com/mirzaaghazadeh/strix/internal/workspace"
)

// ErrCancelled is returned when the user quits before any target is committed.
var ErrCancelled = errors.New("cancelled by user")

// State is a node of the flow.
type State int

const (
	MenuDisplay State = iota
	AwaitingSingleInput
	AwaitingMultiInput
	SettingsScreen
	Resolving
	Done
	Cancelled
)

var stateNames = map[State]string{
	MenuDisplay:         "menu",
	AwaitingSingleInput: "single-input",
	AwaitingMultiInput:  "multi-input",
	SettingsScreen:      "settings",
	Resolving:           "resolving",
	Done:                "done",
	Cancelled:           "cancelled",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further events are accepted.
func (s State) Terminal() bool { return s == Done || s == Cancelled }

// Event is an input to Flow.Update.
type Event interface{ event() }

type (
	MoveUp       struct{}
	MoveDown     struct{}
	Select       struct{}
	Submit       struct{ Value string }
	Cancel       struct{}
	FocusNext    struct{}
	FocusPrev    struct{}
	EditField    struct{ Value string }
	SaveSettings struct{}
)

func (MoveUp) event()       {}
func (MoveDown) event()     {}
func (Select) event()       {}
func (Submit) event()       {}
func (Cancel) event()       {}
func (FocusNext) event()    {}
func (FocusPrev) event()    {}
func (EditField) event()    {}
func (SaveSettings) event() {}

// SettingsStore is the persistence the settings screen needs.
type SettingsStore interface {
	Load() (config.Record, error)
	Save(partial config.Record) error
}

// Flow is the menu state machine. It does no terminal I/O; a host feeds it
// events and renders it.
type Flow struct {
	store SettingsStore
	apply func(config.Record) error

	state  State
	cursor int
	option int

	step    int
	raws    []string
	answers []string

	values map[string]string
	focus  int

	notice string
	result *orchestrate.RunConfig
	err    error
}

// NewFlow starts at MenuDisplay. apply defaults to config.ApplyToEnvironment.
func NewFlow(store SettingsStore, apply func(config.Record) error) *Flow {
	if apply == nil {
		apply = config.ApplyToEnvironment
	}
	return &Flow{store: store, apply: apply}
}

func (f *Flow) State() State        { return f.state }
func (f *Flow) Cursor() int         { return f.cursor }
func (f *Flow) Notice() string      { return f.notice }
func (f *Flow) Collected() []string { return append([]string(nil), f.raws...) }

// Focus returns the focused settings field.
func (f *Flow) Focus() config.Field { return config.Fields[f.focus] }

// FieldValue is the current (unsaved) value of a settings field.
func (f *Flow) FieldValue(key string) string { return f.values[key] }

// Result returns the finished RunConfig, or the error that ended the flow.
func (f *Flow) Result() (*orchestrate.RunConfig, error) {
	switch f.state {
	case Done:
		return f.result, nil
	case Cancelled:
		return nil, f.err
	default:
		return nil, fmt.Errorf("menu flow not finished (state %s)", f.state)
	}
}

// Prompt is the active text prompt in an input state.
func (f *Flow) Prompt() (Prompt, bool) {
	switch f.state {
	case AwaitingMultiInput:
		p := multiTarget
		p.Description = fmt.Sprintf("Target %d of multiple targets", len(f.raws)+1)
		return p, true
	case AwaitingSingleInput:
		return f.followUps()[f.step], true
	}
	return Prompt{}, false
}

// followUps lists the prompts of the selected single-target preset.
func (f *Flow) followUps() []Prompt {
	opt := Options[f.option]
	ps := []Prompt{opt.Target}
	if opt.Instruction != "" {
		return ps
	}
	switch opt.FollowUp {
	case AskInstruction:
		ps = append(ps, instructionPrompt)
	case AskCredentials:
		ps = append(ps, credentialsPrompt, extraInstructionPrompt)
	}
	return ps
}

// Update applies one event. Events that do not apply to the current state
// are ignored.
func (f *Flow) Update(ev Event) {
	if f.state.Terminal() {
		return
	}
	f.notice = ""
	switch f.state {
	case MenuDisplay:
		f.updateMenu(ev)
	case AwaitingSingleInput:
		f.updateSingle(ev)
	case AwaitingMultiInput:
		f.updateMulti(ev)
	case SettingsScreen:
		f.updateSettings(ev)
	}
}

func (f *Flow) updateMenu(ev Event) {
	switch ev.(type) {
	case MoveUp:
		if f.cursor > 0 {
			f.cursor--
		}
	case MoveDown:
		if f.cursor < len(Options)-1 {
			f.cursor++
		}
	case Select:
		f.option = f.cursor
		opt := Options[f.cursor]
		switch {
		case opt.IsSettings:
			f.openSettings()
		case opt.Arity == Multi:
			f.raws = nil
			f.state = AwaitingMultiInput
		default:
			f.raws, f.answers, f.step = nil, nil, 0
			f.state = AwaitingSingleInput
		}
	case Cancel:
		f.cancel(ErrCancelled)
	}
}

func (f *Flow) updateSingle(ev Event) {
	prompts := f.followUps()
	switch ev := ev.(type) {
	case Submit:
		v := strings.TrimSpace(ev.Value)
		if v == "" && !prompts[f.step].AllowEmpty {
			f.notice = "A value is required."
			return
		}
		f.advanceSingle(v, prompts)
	case Cancel:
		if f.step == 0 {
			f.cancel(ErrCancelled)
			return
		}
		// Optional follow-ups: escaping skips the answer.
		f.advanceSingle("", prompts)
	}
}

func (f *Flow) advanceSingle(v string, prompts []Prompt) {
	if f.step == 0 {
		f.raws = []string{v}
	} else {
		f.answers = append(f.answers, v)
	}
	f.step++
	if f.step >= len(prompts) {
		f.state = Resolving
	}
}

func (f *Flow) updateMulti(ev Event) {
	switch ev := ev.(type) {
	case Submit:
		v := strings.TrimSpace(ev.Value)
		if v != "" {
			f.raws = append(f.raws, v)
			return
		}
		if len(f.raws) > 0 {
			f.state = Resolving
		}
	case Cancel:
		if len(f.raws) > 0 {
			f.state = Resolving
			return
		}
		f.cancel(ErrCancelled)
	}
}

func (f *Flow) openSettings() {
	rec, err := f.store.Load()
	if err != nil {
		f.notice = "Could not read settings: " + err.Error()
		return
	}
	f.values = make(map[string]string, len(config.Fields))
	for _, fld := range config.Fields {
		f.values[fld.Key] = rec[fld.Key]
	}
	f.focus = 0
	f.state = SettingsScreen
}

func (f *Flow) updateSettings(ev Event) {
	switch ev := ev.(type) {
	case FocusNext:
		if f.focus < len(config.Fields)-1 {
			f.focus++
		}
	case FocusPrev:
		if f.focus > 0 {
			f.focus--
		}
	case EditField:
		f.values[config.Fields[f.focus].Key] = ev.Value
	case SaveSettings:
		if err := f.saveSettings(); err != nil {
			f.notice = "Could not save settings: " + err.Error()
			return
		}
		f.state = MenuDisplay
		f.notice = "✓ Configuration saved successfully!"
	case Cancel:
		f.state = MenuDisplay
	}
}

func (f *Flow) saveSettings() error {
	current, err := f.store.Load()
	if err != nil {
		return err
	}
	if err := f.store.Save(config.SettingsUpdate(f.values, current)); err != nil {
		return err
	}
	rec, err := f.store.Load()
	if err != nil {
		return err
	}
	return f.apply(rec)
}

// Resolve classifies the collected targets and allocates workspaces. It is
// called by the host once the flow reaches Resolving. An invalid target ends
// the flow in Cancelled with the *target.InvalidTargetError.
func (f *Flow) Resolve() {
	if f.state != Resolving {
		return
	}
	ds, err := target.ResolveAll(f.raws)
	if err != nil {
		logging.New("menu").Debug("target rejected", "error", err)
		f.cancel(err)
		return
	}
	f.result = &orchestrate.RunConfig{
		Targets:     workspace.Allocate(ds),
		Instruction: f.instruction(),
	}
	f.state = Done
}

func (f *Flow) instruction() string {
	opt := Options[f.option]
	if opt.Instruction != "" {
		return opt.Instruction
	}
	switch opt.FollowUp {
	case AskInstruction:
		if len(f.answers) > 0 {
			return f.answers[0]
		}
	case AskCredentials:
		var creds, extra string
		if len(f.answers) > 0 {
			creds = f.answers[0]
		}
		if len(f.answers) > 1 {
			extra = f.answers[1]
		}
		return CredentialsInstruction(creds, extra)
	}
	return ""
}

// CredentialsInstruction combines the credentials preset answers:
// "Test with credentials: <creds>. <extra>." or just <extra> without credentials.
func CredentialsInstruction(creds, extra string) string {
	if creds == "" {
		return extra
	}
	parts := []string{"Test with credentials: " + creds}
	if extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, ". ") + "."
}

func (f *Flow) cancel(err error) {
	f.err = err
	f.state = Cancelled
}
