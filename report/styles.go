package report

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#7D56F4")
	secondaryColor = lipgloss.Color("#6C6C6C")
	successColor   = lipgloss.Color("#73F59F")
	warnColor      = lipgloss.Color("#F5C542")
	errorColor     = lipgloss.Color("#FF6B6B")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)

	roomStyle = lipgloss.NewStyle().
			Bold(true).
			Width(9)

	statusStyles = map[string]lipgloss.Style{
		"optimal":         lipgloss.NewStyle().Foreground(successColor),
		"iteration_limit": lipgloss.NewStyle().Foreground(warnColor),
		"node_limit":      lipgloss.NewStyle().Foreground(warnColor),
		"failed":          lipgloss.NewStyle().Foreground(errorColor),
	}

	warningStyle = lipgloss.NewStyle().
			Foreground(warnColor)
)

func statusText(s string) string {
	if st, ok := statusStyles[s]; ok {
		return st.Render(s)
	}
	return s
}
