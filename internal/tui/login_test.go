package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avetikov/polisdesk/pkg/authgw"
)

func typeString(m loginModel, s string) loginModel {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func newTestLoginModel() loginModel {
	m := newLoginModel(nil)
	m.width = 80
	m.height = 24
	return m
}

func TestLoginTyping(t *testing.T) {
	m := newTestLoginModel()
	m = typeString(m, "agent1")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeString(m, "secret")

	if m.username != "agent1" {
		t.Errorf("username = %q, want agent1", m.username)
	}
	if m.password != "secret" {
		t.Errorf("password = %q, want secret", m.password)
	}
}

func TestLoginPasswordIsMasked(t *testing.T) {
	m := newTestLoginModel()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeString(m, "secret")

	view := m.View()
	if strings.Contains(view, "secret") {
		t.Errorf("password leaked into the view:\n%s", view)
	}
	if !strings.Contains(view, "••••••") {
		t.Errorf("expected masked password, got:\n%s", view)
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	m := newTestLoginModel()
	m = typeString(m, "agent1")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // username -> password
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Fatal("expected no submit with an empty password")
	}
	if !strings.Contains(m.View(), "required") {
		t.Errorf("expected a required-fields message, got:\n%s", m.View())
	}
}

func TestLoginFailureClearsPassword(t *testing.T) {
	m := newTestLoginModel()
	m = typeString(m, "agent1")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeString(m, "wrongpass")
	m.submitting = true

	m, _ = m.Update(loginDoneMsg{err: fmt.Errorf("login: %w", authgw.ErrInvalidCredentials)})
	if m.password != "" {
		t.Errorf("password = %q after failure, want cleared", m.password)
	}
	if !strings.Contains(m.View(), "wrong username or password") {
		t.Errorf("expected credential message, got:\n%s", m.View())
	}
}

func TestLoginServerDownReadsDifferently(t *testing.T) {
	m := newTestLoginModel()
	m, _ = m.Update(loginDoneMsg{err: fmt.Errorf("login: %w", authgw.ErrServerUnavailable)})

	view := m.View()
	if !strings.Contains(view, "unreachable") {
		t.Errorf("expected unreachable message, got:\n%s", view)
	}
	if strings.Contains(view, "wrong username") {
		t.Errorf("server-down must not read as bad credentials:\n%s", view)
	}
}

func TestLoginNoticeShown(t *testing.T) {
	m := newTestLoginModel()
	m.notice = "your session expired, sign in again"

	if !strings.Contains(m.View(), "session expired") {
		t.Errorf("expected notice, got:\n%s", m.View())
	}
}

func TestLoginIgnoresKeysWhileSubmitting(t *testing.T) {
	m := newTestLoginModel()
	m = typeString(m, "agent1")
	m.submitting = true
	m = typeString(m, "xyz")

	if m.username != "agent1" {
		t.Errorf("username = %q, want unchanged while submitting", m.username)
	}
}
