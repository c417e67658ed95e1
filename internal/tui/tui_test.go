package tui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/freevo/kaa-display/internal/config"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadTemp(t *testing.T, data string) (string, *config.LoadResult) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if data != "" {
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	return path, res
}

func send(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func TestModel_TabNavigation(t *testing.T) {
	path, res := loadTemp(t, "")
	m := send(t, newModel(path, res), tea.WindowSizeMsg{Width: 100, Height: 30})

	m = send(t, m, keyMsg("tab"))
	if m.activeTab != TabWindow {
		t.Fatalf("after tab active = %v, want Window", m.activeTab)
	}
	m = send(t, m, keyMsg("3"))
	if m.activeTab != TabRender {
		t.Fatalf("after 3 active = %v, want Render", m.activeTab)
	}
	m = send(t, m, keyMsg("tab"))
	if m.activeTab != TabGeneral {
		t.Fatalf("tab did not wrap: active = %v", m.activeTab)
	}
	if m.View() == "" {
		t.Fatalf("View() is empty after a resize")
	}

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatalf("q did not quit")
	}
}

func TestModel_SaveWritesThroughConfigSave(t *testing.T) {
	path, res := loadTemp(t, "window:\n  argb: false\n")
	m := send(t, newModel(path, res), tea.WindowSizeMsg{Width: 100, Height: 30})

	m = send(t, m, keyMsg("ctrl+s"))
	if !m.saveOverlay.Active() || !errors.Is(m.saveOverlay.err, errNoChanges) {
		t.Fatalf("ctrl+s without changes: overlay err = %v", m.saveOverlay.err)
	}
	m = send(t, m, keyMsg("x"))
	if m.saveOverlay.Active() {
		t.Fatalf("result overlay not dismissed")
	}

	// Window tab, fourth row is argb.
	m = send(t, m, keyMsg("2"))
	m.windowTab.list.Select(3)
	m = send(t, m, keyMsg("enter"))
	if !m.cfg().Window.ARGB {
		t.Fatalf("enter did not toggle argb")
	}
	if !m.dirty() {
		t.Fatalf("model not dirty after an edit")
	}

	m = send(t, m, keyMsg("ctrl+s"))
	if m.saveOverlay.phase != savePreview || len(m.saveOverlay.diffLines) == 0 {
		t.Fatalf("ctrl+s did not open the diff preview")
	}
	m = send(t, m, keyMsg("enter"))
	if !m.saveOverlay.SaveSucceeded() {
		t.Fatalf("save failed: %v", m.saveOverlay.err)
	}
	if m.dirty() {
		t.Fatalf("model still dirty after saving")
	}

	reloaded, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() after save error = %v", err)
	}
	if !reloaded.Config.Window.ARGB {
		t.Fatalf("saved config lost window.argb")
	}
}

func TestSaveOverlay_InvalidConfigIsNotWritten(t *testing.T) {
	path, res := loadTemp(t, "")
	original := cloneConfig(res.Config)
	res.Config.Window.InputOnly = true
	res.Config.Window.ARGB = true

	var s SaveOverlay
	s.Show(original, res.Config, false)
	s = s.Update(keyMsg("y"), res.Config, path)
	var verr *config.ValidationError
	if !errors.As(s.err, &verr) {
		t.Fatalf("save error = %v, want ValidationError", s.err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("invalid config was written: %v", err)
	}
}

func TestSaveOverlay_EscCancels(t *testing.T) {
	path, res := loadTemp(t, "")
	original := cloneConfig(res.Config)
	res.Config.LogLevel = "debug"

	var s SaveOverlay
	s.Show(original, res.Config, true)
	if !s.flattened {
		t.Fatalf("includes warning not set")
	}
	s = s.Update(keyMsg("esc"), res.Config, path)
	if s.Active() {
		t.Fatalf("esc left the overlay open")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("cancelled save wrote the file")
	}
}

func TestWindowTab_EditSize(t *testing.T) {
	_, res := loadTemp(t, "window:\n  width: 320\n")
	tab := NewWindowTab(res.Config, res.Sources)
	tab, _ = tab.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	first := tab.list.Items()[0].(windowItem)
	if first.source == "(default)" {
		t.Fatalf("width source = %q, want the file", first.source)
	}

	tab, _ = tab.Update(keyMsg("enter"))
	if !tab.editing || tab.textInput.Value() != "320" {
		t.Fatalf("enter on width: editing = %v, value = %q", tab.editing, tab.textInput.Value())
	}

	tab.textInput.SetValue("0")
	tab, _ = tab.Update(keyMsg("enter"))
	if tab.err == nil || !tab.editing {
		t.Fatalf("width 0 accepted")
	}

	tab.textInput.SetValue("800")
	tab, _ = tab.Update(keyMsg("enter"))
	if tab.editing || res.Config.Window.Width != 800 {
		t.Fatalf("width = %d (editing %v), want 800", res.Config.Window.Width, tab.editing)
	}
	if got := tab.list.Items()[0].(windowItem); got.value != "800" || got.source != "(modified)" {
		t.Fatalf("width item = %+v", got)
	}

	tab.list.Select(2)
	tab, _ = tab.Update(keyMsg("enter"))
	tab.textInput.SetValue("changed")
	tab, _ = tab.Update(keyMsg("esc"))
	if res.Config.Window.Title == "changed" {
		t.Fatalf("esc applied the title")
	}
}

func TestGeneralTab_ApplyForm(t *testing.T) {
	cfg := config.DefaultConfig()
	g := NewGeneralTab(cfg)
	g.startEditing()
	if !g.editing || g.form == nil {
		t.Fatalf("startEditing() did not build a form")
	}
	if g.fCursorHide != "-1" || g.fEngine != "software" {
		t.Fatalf("form seeded with %q, %q", g.fCursorHide, g.fEngine)
	}

	g.fDisplay = " :1 "
	g.fEngine = "gl"
	g.fCursorHide = "5"
	g.applyForm()
	if cfg.Display != ":1" || cfg.Engine != "gl" || cfg.CursorHideTimeout != 5 {
		t.Fatalf("applyForm() = %+v", cfg)
	}

	g.fCursorHide = "-3"
	g.applyForm()
	if cfg.CursorHideTimeout != 5 {
		t.Fatalf("invalid timeout applied: %d", cfg.CursorHideTimeout)
	}

	g, _ = g.Update(keyMsg("esc"))
	if g.editing {
		t.Fatalf("esc did not leave the form")
	}
}

func TestValidateTimeout(t *testing.T) {
	for _, tt := range []struct {
		in string
		ok bool
	}{{"-1", true}, {"0", true}, {" 30 ", true}, {"-2", false}, {"soon", false}} {
		if err := validateTimeout(tt.in); (err == nil) != tt.ok {
			t.Fatalf("validateTimeout(%q) = %v", tt.in, err)
		}
	}
}

func TestRenderTab_ApplyForm(t *testing.T) {
	cfg := config.DefaultConfig()
	r := NewRenderTab(cfg)
	r.startEditing()
	r.fScaler = "catmull-rom"
	r.fDither = false
	r.fBlend = true
	r.applyForm()
	if cfg.Render.Scaler != "catmull-rom" || cfg.Render.Dither || !cfg.Render.Blend {
		t.Fatalf("applyForm() = %+v", cfg.Render)
	}
}

func TestLcsDiff(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e", "f", "g"}
	b := []string{"a", "b", "c", "X", "e", "f", "g"}
	got := lcsDiff(a, b)

	var removed, added int
	for _, l := range got {
		switch l.kind {
		case diffRemoved:
			removed++
			if l.text != "d" {
				t.Fatalf("removed %q", l.text)
			}
		case diffAdded:
			added++
			if l.text != "X" {
				t.Fatalf("added %q", l.text)
			}
		}
	}
	if removed != 1 || added != 1 {
		t.Fatalf("diff = %+v", got)
	}
	// Two lines of context either side; "a" is outside it.
	if got[0].text != "..." {
		t.Fatalf("first line = %q, want elision marker", got[0].text)
	}

	if lcsDiff(a, a) != nil {
		t.Fatalf("identical input produced a diff")
	}
}
