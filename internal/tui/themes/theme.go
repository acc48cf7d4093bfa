// Package themes holds the color themes of the chat console.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style of the chat console.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bot           lipgloss.Style
	User          lipgloss.Style
	Button        lipgloss.Style
	Selected      lipgloss.Style
	Help          lipgloss.Style
	BorderedBox   lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusSending lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Error         lipgloss.Color
}

// Default is the default theme.
var Default = build(palette{
	primary:    "#7c3aed",
	foreground: "#fafafa",
	muted:      "#737373",
	border:     "#404040",
	userText:   "#a78bfa",
	info:       "#3b82f6",
	errorText:  "#ef4444",
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary:    "#cba6f7",
	foreground: "#cdd6f4",
	muted:      "#6c7086",
	border:     "#45475a",
	userText:   "#f5c2e7",
	info:       "#89dceb",
	errorText:  "#f38ba8",
})

// ByName returns the named theme, falling back to Default.
func ByName(name string) Theme {
	if name == "catppuccin" || name == "mocha" {
		return CatppuccinMocha
	}
	return Default
}

type palette struct {
	primary, foreground, muted, border, userText, info, errorText string
}

func build(p palette) Theme {
	return Theme{
		Primary: lipgloss.Color(p.primary),
		Muted:   lipgloss.Color(p.muted),
		Border:  lipgloss.Color(p.border),
		Error:   lipgloss.Color(p.errorText),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.foreground)),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.foreground)),
		Bot: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.foreground)).
			PaddingLeft(1),
		User: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.userText)).
			Italic(true).
			PaddingLeft(1),
		Button: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.border)).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.primary)).
			Foreground(lipgloss.Color(p.primary)).
			Bold(true).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)),
		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.border)).
			Padding(0, 1),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.errorText)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.info)).
			Bold(true),
		StatusSending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.muted)).
			Italic(true),
	}
}
