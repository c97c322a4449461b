package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func printHelp() {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4a9ade")).
		Bold(true).
		Render("P O L I S D E S K")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Insurance back office, in your terminal.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"polisdesk", "Open the workspace (interactive TUI)"},
		{"polisdesk login", "Sign in with username and password"},
		{"polisdesk logout", "Sign out and clear stored credentials"},
		{"polisdesk whoami", "Show the signed-in user"},
		{"polisdesk --version", "Show version"},
		{"polisdesk help", "You are here"},
	}

	fmt.Printf("\n  %s\n\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", c.cmd)), descStyle.Render(c.desc))
	}

	envStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	fmt.Printf("\n  Environment:\n")
	for _, e := range []struct{ name, desc string }{
		{"POLISDESK_AUTH_URL", "auth service base URL (default http://localhost:8001)"},
		{"POLISDESK_API_URL", "back-office API base URL (default http://localhost:8000)"},
		{"POLISDESK_HOME", "credentials directory (default ~/.polisdesk)"},
		{"POLISDESK_LOG_LEVEL", "log level: debug, info, warn, error (default warn)"},
	} {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", e.name)), envStyle.Render(e.desc))
	}
	fmt.Println()
}
