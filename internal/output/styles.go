package output

import "github.com/charmbracelet/lipgloss"

// Color palette: named constants for all ANSI 256 colors used in the CLI.
// These are the single source of truth; never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: template names, paths, keys.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "pass" case status.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "incomplete" case status.
	ColorYellow = lipgloss.Color("220")

	// ColorRed is used for removed paths.
	ColorRed = lipgloss.Color("196")

	// ColorBoldRed is used for the "fail" case status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles map domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (template names, paths, keys).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (generating, pruning, sweeping).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators, descriptions).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)

	// StyleAdded styles paths present only on the right side of a diff.
	StyleAdded = lipgloss.NewStyle().Foreground(ColorGreen)

	// StyleRemoved styles paths present only on the left side of a diff.
	StyleRemoved = lipgloss.NewStyle().Foreground(ColorRed)

	// StyleModified styles paths present on both sides with different content.
	StyleModified = lipgloss.NewStyle().Foreground(ColorYellow)
)

// Case status constants.
const (
	StatusPass       = "pass"
	StatusFail       = "fail"
	StatusIncomplete = "incomplete"
)

// StatusStyle returns the lipgloss style for a given case status string.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusPass:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusIncomplete:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusFail:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// FormatStatus renders a status word with its style.
func FormatStatus(status string) string {
	return StatusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatCross renders a red cross with a message for stdout output.
func FormatCross(msg string) string {
	cross := lipgloss.NewStyle().Foreground(ColorBoldRed).Render("✘")
	return cross + " " + msg
}
