// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/artinav/artinav/internal/config"
)

var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#7C3AED"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#6B7280"}
	colorError     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#EF4444"}
	colorWarning   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	colorHighlight = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#3B82F6"}
)

// Styles holds every style the browser renders with. Build it with
// NewStyles so that SSH sessions get a renderer bound to their own terminal.
type Styles struct {
	Title      lipgloss.Style
	Crumb      lipgloss.Style
	CrumbIndex lipgloss.Style
	CrumbSep   lipgloss.Style
	Folder     lipgloss.Style
	File       lipgloss.Style
	Cursor     lipgloss.Style
	Selected   lipgloss.Style
	Empty      lipgloss.Style
	Search     lipgloss.Style
	Status     lipgloss.Style
	ErrorTitle lipgloss.Style
	ErrorBox   lipgloss.Style
}

// NewStyles creates the styles for r. A nil r uses the default renderer. A
// dark or light scheme overrides background detection.
func NewStyles(r *lipgloss.Renderer, scheme config.ColorScheme) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	switch scheme {
	case config.ColorSchemeDark:
		r.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		r.SetHasDarkBackground(false)
	}

	return Styles{
		Title:      r.NewStyle().Bold(true).Foreground(colorPrimary),
		Crumb:      r.NewStyle().Foreground(colorHighlight),
		CrumbIndex: r.NewStyle().Foreground(colorMuted),
		CrumbSep:   r.NewStyle().Foreground(colorMuted).SetString(" › "),
		Folder:     r.NewStyle().Bold(true).Foreground(colorHighlight),
		File:       r.NewStyle(),
		Cursor:     r.NewStyle().Foreground(colorPrimary).SetString("▸ "),
		Selected:   r.NewStyle().Underline(true),
		Empty:      r.NewStyle().Italic(true).Foreground(colorMuted),
		Search:     r.NewStyle().Foreground(colorPrimary),
		Status:     r.NewStyle().Foreground(colorWarning),
		ErrorTitle: r.NewStyle().Bold(true).Foreground(colorError),
		ErrorBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1),
	}
}
