package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/freevo/kaa-display/internal/config"
)

// GeneralTab edits the connection, logging and engine settings.
type GeneralTab struct {
	cfg *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fDisplay    string
	fLogLevel   string
	fEngine     string
	fCursorHide string
}

// NewGeneralTab creates a GeneralTab over cfg.
func NewGeneralTab(cfg *config.Config) GeneralTab {
	return GeneralTab{cfg: cfg}
}

// Update implements tea.Model.
func (g GeneralTab) Update(msg tea.Msg) (GeneralTab, tea.Cmd) {
	if g.editing {
		return g.updateEditing(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" || msg.String() == "enter" {
			g.startEditing()
			return g, g.form.Init()
		}
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
	}
	return g, nil
}

func (g GeneralTab) updateEditing(msg tea.Msg) (GeneralTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			g.editing = false
			g.form = nil
			return g, nil
		}
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}
	if g.form.State == huh.StateCompleted {
		g.applyForm()
		g.editing = false
		g.form = nil
		return g, nil
	}
	return g, cmd
}

func (g *GeneralTab) startEditing() {
	cfg := g.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	g.fDisplay = cfg.Display
	g.fLogLevel = cfg.LogLevel
	g.fEngine = cfg.Engine
	g.fCursorHide = strconv.Itoa(cfg.CursorHideTimeout)

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("display").
				Title("Display").
				Description("X display to open; empty uses $DISPLAY").
				Value(&g.fDisplay),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&g.fLogLevel),

			huh.NewSelect[string]().
				Key("engine").
				Title("Scene Engine").
				Description("Backend used by show --scene").
				Options(huh.NewOptions("software", "gl")...).
				Value(&g.fEngine),

			huh.NewInput().
				Key("cursor_hide_timeout").
				Title("Cursor Hide Timeout").
				Description("Seconds of inactivity before the cursor hides; -1 never").
				Validate(validateTimeout).
				Value(&g.fCursorHide),
		),
	).WithWidth(max(g.width-4, 40)).WithShowHelp(true).WithShowErrors(true)

	g.editing = true
}

func validateTimeout(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number of seconds")
	}
	if v < -1 {
		return fmt.Errorf("must be -1 or more")
	}
	return nil
}

func (g *GeneralTab) applyForm() {
	if g.cfg == nil {
		return
	}
	g.cfg.Display = strings.TrimSpace(g.fDisplay)
	if g.fLogLevel != "" {
		g.cfg.LogLevel = g.fLogLevel
	}
	if g.fEngine != "" {
		g.cfg.Engine = g.fEngine
	}
	if validateTimeout(g.fCursorHide) == nil {
		g.cfg.CursorHideTimeout, _ = strconv.Atoi(strings.TrimSpace(g.fCursorHide))
	}
}

// View implements tea.Model.
func (g GeneralTab) View() string {
	if g.editing && g.form != nil {
		return viewForm("Editing General Settings", g.form, g.width, g.height)
	}

	cfg := g.cfg
	if cfg == nil {
		return viewEmpty(g.width, g.height)
	}
	timeout := "never"
	if cfg.CursorHideTimeout >= 0 {
		timeout = fmt.Sprintf("%ds", cfg.CursorHideTimeout)
	}
	return viewRows(g.width, g.height, [][2]string{
		{"Display", displayOrDefault(cfg.Display, "($DISPLAY)")},
		{"Log Level", cfg.LogLevel},
		{"Scene Engine", cfg.Engine},
		{"Cursor Hide Timeout", timeout},
	})
}

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Width(22).
			Align(lipgloss.Right).
			PaddingRight(2)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// viewRows renders label/value pairs with an edit hint underneath.
func viewRows(width, height int, rows [][2]string) string {
	lines := []string{""}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+valueStyle.Render(r[1]))
	}
	lines = append(lines, "", dimStyle.Render("  Press 'e' to edit settings"))

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func viewForm(title string, form *huh.Form, width, height int) string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render(title) +
		dimStyle.Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		Render(header + "\n\n" + form.View())
}

func viewEmpty(width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Foreground(lipgloss.Color("241")).
		Align(lipgloss.Center, lipgloss.Center).
		Render("No config loaded")
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
