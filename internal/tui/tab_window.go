package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/freevo/kaa-display/internal/config"
)

type fieldKind int

const (
	fieldBool fieldKind = iota
	fieldSize
	fieldText
)

// windowField is one editable key of the window block.
type windowField struct {
	key   string
	label string
	kind  fieldKind
}

var windowFields = []windowField{
	{"width", "Width", fieldSize},
	{"height", "Height", fieldSize},
	{"title", "Title", fieldText},
	{"argb", "ARGB visual", fieldBool},
	{"window_events", "Window events", fieldBool},
	{"mouse_events", "Mouse events", fieldBool},
	{"key_events", "Key events", fieldBool},
	{"input_only", "Input only", fieldBool},
}

// windowItem is a list item showing one field, its value and where the
// value came from.
type windowItem struct {
	field  windowField
	value  string
	source string
}

func (i windowItem) Title() string {
	return i.field.label + ": " + lipgloss.NewStyle().Bold(true).Render(i.value)
}

func (i windowItem) Description() string { return "window." + i.field.key + "  " + i.source }

func (i windowItem) FilterValue() string { return i.field.key }

// WindowTab edits the defaults for windows created by the CLI. Booleans
// toggle in place; sizes and the title open an inline input.
type WindowTab struct {
	list    list.Model
	cfg     *config.Config
	sources map[string]config.Source
	edited  map[string]bool
	width   int
	height  int

	editing   bool
	textInput textinput.Model
	err       error
}

// NewWindowTab creates a WindowTab over cfg. sources maps YAML paths to
// the file that set them.
func NewWindowTab(cfg *config.Config, sources map[string]config.Source) WindowTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	t := WindowTab{
		cfg:     cfg,
		sources: sources,
		edited:  make(map[string]bool),
	}

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Window Defaults"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	t.list = l
	t.list.SetItems(t.items())

	ti := textinput.New()
	ti.CharLimit = 128
	t.textInput = ti
	return t
}

func (t WindowTab) items() []list.Item {
	items := make([]list.Item, 0, len(windowFields))
	for _, f := range windowFields {
		items = append(items, windowItem{
			field:  f,
			value:  t.value(f.key),
			source: t.sourceLabel(f.key),
		})
	}
	return items
}

func (t WindowTab) sourceLabel(key string) string {
	if t.edited[key] {
		return "(modified)"
	}
	src, ok := t.sources["window."+key]
	if !ok || src.Kind != config.SourceFile {
		return "(default)"
	}
	if src.Line > 0 {
		return fmt.Sprintf("(%s:%d)", src.File, src.Line)
	}
	return "(" + src.File + ")"
}

func (t WindowTab) value(key string) string {
	if t.cfg == nil {
		return ""
	}
	w := t.cfg.Window
	switch key {
	case "width":
		return strconv.Itoa(w.Width)
	case "height":
		return strconv.Itoa(w.Height)
	case "title":
		return w.Title
	}
	if p := t.boolField(key); p != nil {
		return onOff(*p)
	}
	return ""
}

func (t WindowTab) boolField(key string) *bool {
	w := &t.cfg.Window
	switch key {
	case "argb":
		return &w.ARGB
	case "window_events":
		return &w.WindowEvents
	case "mouse_events":
		return &w.MouseEvents
	case "key_events":
		return &w.KeyEvents
	case "input_only":
		return &w.InputOnly
	}
	return nil
}

// Update handles messages for the window tab.
func (t WindowTab) Update(msg tea.Msg) (WindowTab, tea.Cmd) {
	if t.editing {
		return t.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.list.SetSize(t.width, max(t.height-2, 1))
		return t, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "e", " ":
			item, ok := t.list.SelectedItem().(windowItem)
			if !ok || t.cfg == nil {
				return t, nil
			}
			if item.field.kind == fieldBool {
				p := t.boolField(item.field.key)
				*p = !*p
				t.edited[item.field.key] = true
				t.err = nil
				cmd := t.list.SetItems(t.items())
				return t, cmd
			}
			t.editing = true
			t.err = nil
			t.textInput.SetValue(item.value)
			t.textInput.CursorEnd()
			return t, t.textInput.Focus()
		}
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t WindowTab) updateEditing(msg tea.Msg) (WindowTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			item, ok := t.list.SelectedItem().(windowItem)
			if !ok {
				t.stopEditing()
				return t, nil
			}
			if err := t.apply(item.field, t.textInput.Value()); err != nil {
				t.err = err
				return t, nil
			}
			t.stopEditing()
			cmd := t.list.SetItems(t.items())
			return t, cmd
		case "esc":
			t.stopEditing()
			return t, nil
		}
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.list.SetSize(t.width, max(t.height-2, 1))
		return t, nil
	}

	var cmd tea.Cmd
	t.textInput, cmd = t.textInput.Update(msg)
	return t, cmd
}

func (t *WindowTab) stopEditing() {
	t.editing = false
	t.err = nil
	t.textInput.Blur()
}

func (t *WindowTab) apply(f windowField, raw string) error {
	raw = strings.TrimSpace(raw)
	switch f.kind {
	case fieldSize:
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return fmt.Errorf("%s must be a positive number of pixels", strings.ToLower(f.label))
		}
		if f.key == "width" {
			t.cfg.Window.Width = v
		} else {
			t.cfg.Window.Height = v
		}
	case fieldText:
		t.cfg.Window.Title = raw
	default:
		return nil
	}
	t.edited[f.key] = true
	return nil
}

// View implements tea.Model.
func (t WindowTab) View() string {
	if t.cfg == nil {
		return viewEmpty(t.width, t.height)
	}

	var footer string
	switch {
	case t.editing:
		footer = t.textInput.View()
		if t.err != nil {
			footer += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(t.err.Error())
		}
	default:
		footer = dimStyle.Render("enter/space: toggle or edit  j/k: move")
	}
	return lipgloss.JoinVertical(lipgloss.Left, t.list.View(), footer)
}
