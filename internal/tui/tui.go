// Package tui is an interactive editor for the kaa-display config file.
package tui

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/freevo/kaa-display/internal/config"
)

// Run loads the config at path, or the default location when path is
// empty, and edits it until the user quits. Changes are written back to
// the same path through Config.Save.
func Run(path string) error {
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("config edit needs an interactive terminal")
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newModel(path, res), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
