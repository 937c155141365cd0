package model

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/bark/pkg/filter"
)

// SaveForm asks for the name to save the active filter under.
type SaveForm struct {
	input   textinput.Model
	pattern string
	regex   bool
}

// NewSaveForm creates a form for saving pattern.
func NewSaveForm(pattern string, regex bool) *SaveForm {
	ti := textinput.New()
	ti.Prompt = "name: "
	ti.Placeholder = "errors"
	ti.CharLimit = 64
	ti.Focus()
	return &SaveForm{input: ti, pattern: pattern, regex: regex}
}

// HandleKey processes key events in save mode.
func (f *SaveForm) HandleKey(a App, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Escape):
		a.mode = ModeNormal
		a.form = nil
		return a, nil

	case key.Matches(msg, a.keys.Confirm):
		a.mode = ModeNormal
		a.form = nil
		sf, err := a.sess.SaveFilter(f.input.Value())
		if err != nil {
			a.sess.SetStatus("Error: %v", err)
			return a, nil
		}
		a.prefs.Filters = filter.Upsert(a.prefs.Filters, sf)
		return a, a.persist()

	default:
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return a, cmd
	}
}

// View renders the form on one line.
func (f *SaveForm) View() string {
	kind := "literal"
	if f.regex {
		kind = "regex"
	}
	return titleStyle.Render("Save filter ") + dimStyle.Render(kind+" "+f.pattern+"  ") + f.input.View() +
		helpStyle.Render("  enter:save esc:cancel")
}
