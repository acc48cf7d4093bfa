// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#2E7D5B")
	green   = lipgloss.Color("#43A047")
	amber   = lipgloss.Color("#F9A825")
	red     = lipgloss.Color("#E53935")
	blue    = lipgloss.Color("#1E88E5")
	subtle  = lipgloss.Color("#777777")
	outline = lipgloss.Color("#3A3A3A")

	// TitleStyle is used for box and section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(green)
	WarningStyle = lipgloss.NewStyle().Foreground(amber)
	ErrorStyle   = lipgloss.NewStyle().Foreground(red)
	InfoStyle    = lipgloss.NewStyle().Foreground(blue)
	SubtleStyle  = lipgloss.NewStyle().Foreground(subtle)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// BoxStyle frames reports and command summaries.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(outline).
			Padding(1, 2)

	PromptStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatPrompt formats a question put to the user.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// RenderReport boxes a plain-text report. The first line becomes the title;
// person lines are bold and budget lines are colored by how much is spent.
func RenderReport(report string) string {
	lines := strings.Split(strings.Trim(report, "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}

	body := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		body = append(body, styleReportLine(line))
	}
	return RenderBox(lines[0], strings.Join(body, "\n"))
}

func styleReportLine(line string) string {
	switch {
	case strings.HasPrefix(line, "👤"):
		return BoldStyle.Render(line)
	case strings.Contains(line, "🟥"):
		return ErrorStyle.Render(line)
	case strings.Contains(line, "🟨"):
		return WarningStyle.Render(line)
	case strings.Contains(line, "🟩"):
		return SuccessStyle.Render(line)
	case strings.TrimSpace(line) == "":
		return line
	case strings.HasPrefix(strings.TrimSpace(line), "•"), strings.HasPrefix(strings.TrimSpace(line), "-"):
		return SubtleStyle.Render(line)
	}
	return line
}
