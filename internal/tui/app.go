package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/freevo/kaa-display/internal/config"
)

// model is the root bubbletea model for the config editor.
type model struct {
	configPath string
	result     *config.LoadResult

	activeTab Tab

	generalTab GeneralTab
	windowTab  WindowTab
	renderTab  RenderTab

	// original is the last saved state, for the diff preview.
	original    *config.Config
	saveOverlay SaveOverlay

	width  int
	height int
}

func newModel(configPath string, res *config.LoadResult) model {
	m := model{
		configPath: configPath,
		result:     res,
		activeTab:  TabGeneral,
	}
	var cfg *config.Config
	var sources map[string]config.Source
	if res != nil {
		cfg = res.Config
		sources = res.Sources
		m.original = cloneConfig(cfg)
	}
	m.generalTab = NewGeneralTab(cfg)
	m.windowTab = NewWindowTab(cfg, sources)
	m.renderTab = NewRenderTab(cfg)
	return m
}

func (m model) cfg() *config.Config {
	if m.result == nil {
		return nil
	}
	return m.result.Config
}

func (m model) dirty() bool {
	return len(computeDiffLines(m.original, m.cfg())) > 0
}

// capturing reports whether the active tab owns the keyboard.
func (m model) capturing() bool {
	switch m.activeTab {
	case TabGeneral:
		return m.generalTab.editing
	case TabWindow:
		return m.windowTab.editing
	case TabRender:
		return m.renderTab.editing
	}
	return false
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Save overlay captures all input when active
	if m.saveOverlay.Active() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			prevPhase := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(msg, m.cfg(), m.configPath)
			if prevPhase == savePreview && m.saveOverlay.SaveSucceeded() {
				m.original = cloneConfig(m.cfg())
			}
		case tea.WindowSizeMsg:
			m.resize(msg)
		}
		return m, nil
	}

	// ctrl+s saves from any context, including a half filled form
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+s" {
		if cfg := m.cfg(); cfg != nil {
			m.saveOverlay.Show(m.original, cfg, len(m.result.Files) > 1)
		}
		return m, nil
	}

	if m.capturing() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case tea.WindowSizeMsg:
			m.resize(msg)
			return m, nil
		}
		return m.updateActive(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabGeneral
			return m, nil
		case "2":
			m.activeTab = TabWindow
			return m, nil
		case "3":
			m.activeTab = TabRender
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil
	}
	return m.updateActive(msg)
}

func (m model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabGeneral:
		m.generalTab, cmd = m.generalTab.Update(msg)
	case TabWindow:
		m.windowTab, cmd = m.windowTab.Update(msg)
	case TabRender:
		m.renderTab, cmd = m.renderTab.Update(msg)
	}
	return m, cmd
}

// resize forwards the content area to every tab.
func (m *model) resize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	sub := tea.WindowSizeMsg{Width: m.width, Height: max(m.height-4, 1)}
	m.generalTab, _ = m.generalTab.Update(sub)
	m.windowTab, _ = m.windowTab.Update(sub)
	m.renderTab, _ = m.renderTab.Update(sub)
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var files []string
	if m.result != nil {
		files = m.result.Files
	}
	statusBar := renderStatusBar(m.configPath, files, m.dirty(), m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	used := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := max(m.height-used, 1)

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabGeneral:
			content = m.generalTab.View()
		case TabWindow:
			content = m.windowTab.View()
		case TabRender:
			content = m.renderTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
