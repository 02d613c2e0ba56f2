package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	codeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cursorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	buttonStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("6")).Padding(0, 1)
	disabledStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(0, 1)
	countStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	placeholderStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")).Padding(1, 2)
	alertStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Padding(0, 1)
	spinnerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)
