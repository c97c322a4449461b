package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avetikov/polisdesk/pkg/domain"
)

// renderWordmark renders the spaced POLISDESK wordmark for the header.
func renderWordmark() string {
	const text = "POLISDESK"
	letters := make([]string, 0, len(text))
	for _, ch := range text {
		letters = append(letters, logoStyle.Render(string(ch)))
	}
	return strings.Join(letters, " ")
}

var (
	// Base styles, neutral palette
	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4a9ade")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4a9ade")).
			Bold(true)

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Feedback
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e05858"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#34d474"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	// Money and identifiers
	amountStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	numberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	// Login form
	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#4a9ade")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#505868")).
				Italic(true)
)

// contract/claim status colors
var statusStyles = map[string]lipgloss.Style{
	domain.ContractDraft:     lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")),
	domain.ContractActive:    lipgloss.NewStyle().Foreground(lipgloss.Color("#34d474")),
	domain.ContractSuspended: lipgloss.NewStyle().Foreground(lipgloss.Color("#d4a844")),
	domain.ContractExpired:   lipgloss.NewStyle().Foreground(lipgloss.Color("#505868")),
	domain.ContractCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("#e05858")),

	domain.ClaimSubmitted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4a9ade")),
	domain.ClaimUnderReview: lipgloss.NewStyle().Foreground(lipgloss.Color("#d4a844")),
	domain.ClaimApproved:    lipgloss.NewStyle().Foreground(lipgloss.Color("#34d474")),
	domain.ClaimRejected:    lipgloss.NewStyle().Foreground(lipgloss.Color("#e05858")),
	domain.ClaimPaid:        lipgloss.NewStyle().Foreground(lipgloss.Color("#34d474")),
}

// StatusStyle returns the style for a contract or claim status, falling back
// to the neutral style for unknown values.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return normalStyle
}

// role colors for the users screen and the header badge
var roleStyles = map[string]lipgloss.Style{
	domain.RoleAdmin:    lipgloss.NewStyle().Foreground(lipgloss.Color("#e05858")),
	domain.RoleManager:  lipgloss.NewStyle().Foreground(lipgloss.Color("#d4a844")),
	domain.RoleAgent:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4a9ade")),
	domain.RoleAdjuster: lipgloss.NewStyle().Foreground(lipgloss.Color("#c084e0")),
	domain.RoleOperator: lipgloss.NewStyle().Foreground(lipgloss.Color("#34d474")),
}

// RoleStyle returns the style for a back-office role.
func RoleStyle(role string) lipgloss.Style {
	if s, ok := roleStyles[role]; ok {
		return s
	}
	return normalStyle
}

// helpEntry renders a "key label" pair for the bottom help bar.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}
