package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/freevo/kaa-display/internal/config"
)

// RenderTab edits the image blit defaults.
type RenderTab struct {
	cfg *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form

	fScaler string
	fDither bool
	fBlend  bool
}

// NewRenderTab creates a RenderTab over cfg.
func NewRenderTab(cfg *config.Config) RenderTab {
	return RenderTab{cfg: cfg}
}

// Update implements tea.Model.
func (r RenderTab) Update(msg tea.Msg) (RenderTab, tea.Cmd) {
	if r.editing {
		return r.updateEditing(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" || msg.String() == "enter" {
			r.startEditing()
			return r, r.form.Init()
		}
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
	}
	return r, nil
}

func (r RenderTab) updateEditing(msg tea.Msg) (RenderTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			r.editing = false
			r.form = nil
			return r, nil
		}
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}
	if r.form.State == huh.StateCompleted {
		r.applyForm()
		r.editing = false
		r.form = nil
		return r, nil
	}
	return r, cmd
}

func (r *RenderTab) startEditing() {
	cfg := r.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r.fScaler = cfg.Render.Scaler
	r.fDither = cfg.Render.Dither
	r.fBlend = cfg.Render.Blend

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("scaler").
				Title("Scaler").
				Description("Interpolation used when an image is scaled").
				Options(huh.NewOptions(config.ScalerNames()...)...).
				Value(&r.fScaler),

			huh.NewConfirm().
				Key("dither").
				Title("Dither").
				Description("Dither images drawn into 16-bit windows").
				Value(&r.fDither),

			huh.NewConfirm().
				Key("blend").
				Title("Blend").
				Description("Composite images over the current window contents").
				Value(&r.fBlend),
		),
	).WithWidth(max(r.width-4, 40)).WithShowHelp(true).WithShowErrors(true)

	r.editing = true
}

func (r *RenderTab) applyForm() {
	if r.cfg == nil {
		return
	}
	if r.fScaler != "" {
		r.cfg.Render.Scaler = r.fScaler
	}
	r.cfg.Render.Dither = r.fDither
	r.cfg.Render.Blend = r.fBlend
}

// View implements tea.Model.
func (r RenderTab) View() string {
	if r.editing && r.form != nil {
		return viewForm("Editing Render Settings", r.form, r.width, r.height)
	}
	cfg := r.cfg
	if cfg == nil {
		return viewEmpty(r.width, r.height)
	}
	return viewRows(r.width, r.height, [][2]string{
		{"Scaler", cfg.Render.Scaler},
		{"Dither", onOff(cfg.Render.Dither)},
		{"Blend", onOff(cfg.Render.Blend)},
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
