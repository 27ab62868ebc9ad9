package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("39")  // Cyan
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("245") // Gray
	ColorHighlight = lipgloss.Color("226") // Yellow
)

// Styles for various UI elements
var (
	Bold   = lipgloss.NewStyle().Bold(true)
	Dim    = lipgloss.NewStyle().Foreground(ColorMuted)
	Header = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	Error   = lipgloss.NewStyle().Foreground(ColorError)

	FilePath = lipgloss.NewStyle().Foreground(ColorPrimary)

	ResultHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
	ResultScore = lipgloss.NewStyle().
			Foreground(ColorSuccess)
	ResultContent = lipgloss.NewStyle().
			Foreground(ColorMuted).
			PaddingLeft(2)

	SourceRef = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

// FormatSource formats a chunk's provenance for display.
func FormatSource(owner, name, path string, chunkIndex int) string {
	return FilePath.Render(owner+"/"+name+" "+path) + Dim.Render(fmt.Sprintf(" #%d", chunkIndex))
}

// FormatScore formats a relevance score.
func FormatScore(score float64) string {
	return ResultScore.Render(fmt.Sprintf("(score %.1f)", score))
}
