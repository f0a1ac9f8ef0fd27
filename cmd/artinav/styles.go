// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette shared by every CLI command. Tuned for dark terminals.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED") // titles
	ColorMuted     = lipgloss.Color("#6B7280") // subtitles, tree branches
	ColorSuccess   = lipgloss.Color("#10B981") // artifacts, confirmations
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6") // folders, config keys, URLs
	ColorVerbose   = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle renders headers such as "Current Configuration".
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	// SubtitleStyle renders breadcrumbs, counts and "(using defaults)" notes.
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(ColorSuccess)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	// CmdStyle renders configuration keys and addresses.
	CmdStyle     = lipgloss.NewStyle().Foreground(ColorHighlight)
	VerboseStyle = lipgloss.NewStyle().Foreground(ColorVerbose)

	folderStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorHighlight)
	fileStyle       = lipgloss.NewStyle().Foreground(ColorSuccess)
	enumeratorStyle = lipgloss.NewStyle().Foreground(ColorMuted).MarginRight(1)
)
