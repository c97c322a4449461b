package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avetikov/polisdesk/pkg/authgw"
	"github.com/avetikov/polisdesk/pkg/session"
)

type loginField int

const (
	fieldUsername loginField = iota
	fieldPassword
)

// loginDoneMsg carries the result of a login attempt.
type loginDoneMsg struct {
	err error
}

type loginModel struct {
	sess       *session.Controller
	username   string
	password   string
	field      loginField
	submitting bool
	errText    string
	notice     string // shown when the session expired out from under the user
	width      int
	height     int
}

func newLoginModel(sess *session.Controller) loginModel {
	return loginModel{sess: sess}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) submit() tea.Cmd {
	sess := m.sess
	username, password := m.username, m.password
	return func() tea.Msg {
		return loginDoneMsg{err: sess.Login(context.Background(), username, password)}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = describeLoginError(msg.err)
			m.password = ""
			m.field = fieldPassword
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.field = fieldPassword
			return m, nil
		case "shift+tab", "up":
			m.field = fieldUsername
			return m, nil
		case "enter":
			if m.field == fieldUsername {
				m.field = fieldPassword
				return m, nil
			}
			if m.username == "" || m.password == "" {
				m.errText = "username and password are required"
				return m, nil
			}
			m.submitting = true
			m.errText = ""
			m.notice = ""
			return m, m.submit()
		default:
			if m.field == fieldUsername {
				m.username = editRune(m.username, msg.String())
			} else {
				m.password = editRune(m.password, msg.String())
			}
			return m, nil
		}
	}
	return m, nil
}

// describeLoginError maps the typed login failures to user-facing text. The
// wrong-password and unreachable-server cases must read differently.
func describeLoginError(err error) string {
	switch {
	case errors.Is(err, authgw.ErrInvalidCredentials):
		return "wrong username or password"
	case errors.Is(err, authgw.ErrServerUnavailable):
		return "authentication server unreachable, try again later"
	default:
		return err.Error()
	}
}

func (m loginModel) View() string {
	var sb strings.Builder

	field := func(label, value string, masked, active bool) string {
		shown := value
		if masked {
			shown = strings.Repeat("•", len([]rune(value)))
		}
		prompt := "  "
		if active {
			prompt = inputPromptStyle.Render("> ")
		}
		if shown == "" && !active {
			shown = inputPlaceholderStyle.Render(label)
		} else if active {
			shown = selectedStyle.Render(shown) + accentStyle.Render("█")
		} else {
			shown = normalStyle.Render(shown)
		}
		return prompt + metaStyle.Render(label+": ") + shown
	}

	sb.WriteString("\n")
	if m.notice != "" {
		sb.WriteString(" " + warnStyle.Render(m.notice) + "\n\n")
	}
	sb.WriteString(" " + dimStyle.Render("Sign in to the back office") + "\n\n")
	sb.WriteString(" " + field("username", m.username, false, m.field == fieldUsername) + "\n")
	sb.WriteString(" " + field("password", m.password, true, m.field == fieldPassword) + "\n")

	switch {
	case m.submitting:
		sb.WriteString("\n " + dimStyle.Render("signing in...") + "\n")
	case m.errText != "":
		sb.WriteString("\n " + errorStyle.Render(m.errText) + "\n")
	}

	body := sb.String()
	if m.width > 0 {
		body = lipgloss.NewStyle().Width(m.width).Render(body)
	}
	return body
}
