package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avetikov/polisdesk/pkg/api"
	"github.com/avetikov/polisdesk/pkg/domain"
)

// roleCycle is the order the "r" key walks through when reassigning roles.
var roleCycle = []string{
	domain.RoleOperator,
	domain.RoleAgent,
	domain.RoleAdjuster,
	domain.RoleManager,
	domain.RoleAdmin,
}

type usersLoadedMsg struct {
	page *api.UserPage
	err  error
}

type roleUpdatedMsg struct {
	user *domain.UserProfile
	err  error
}

type usersModel struct {
	gw      *api.Gateway
	self    string // username of the signed-in user, role changes to self are blocked
	users   []domain.UserProfile
	total   int
	cursor  int
	loading bool
	saving  bool
	err     string
	notice  string
	width   int
	height  int
}

func newUsersModel(gw *api.Gateway, self string) usersModel {
	return usersModel{gw: gw, self: self, loading: true}
}

func (m usersModel) Init() tea.Cmd {
	return m.load()
}

func (m usersModel) load() tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		page, err := gw.ListUsers(context.Background(), 0, pageSize)
		return usersLoadedMsg{page: page, err: err}
	}
}

func (m usersModel) assignRole(id, role string) tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		user, err := gw.UpdateUserRole(context.Background(), id, role)
		return roleUpdatedMsg{user: user, err: err}
	}
}

func nextRole(current string) string {
	for i, r := range roleCycle {
		if r == current {
			return roleCycle[(i+1)%len(roleCycle)]
		}
	}
	return roleCycle[0]
}

func (m usersModel) Update(msg tea.Msg) (usersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case usersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, authLostCmd(msg.err)
		}
		m.err = ""
		m.users = msg.page.Users
		m.total = msg.page.Total
		if m.cursor >= len(m.users) {
			m.cursor = 0
		}
		return m, nil

	case roleUpdatedMsg:
		m.saving = false
		if msg.err != nil {
			if api.IsStatus(msg.err, 403) {
				m.err = "only administrators can change roles"
			} else {
				m.err = msg.err.Error()
			}
			return m, authLostCmd(msg.err)
		}
		m.err = ""
		if msg.user != nil {
			for i := range m.users {
				if m.users[i].ID == msg.user.ID {
					m.users[i] = *msg.user
				}
			}
			m.notice = fmt.Sprintf("%s is now %s", msg.user.Username, msg.user.Role)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.users)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r":
			if m.cursor < len(m.users) && !m.saving {
				u := m.users[m.cursor]
				if u.Username == m.self {
					m.err = "you cannot change your own role"
					return m, nil
				}
				m.saving = true
				m.err = ""
				m.notice = ""
				return m, m.assignRole(u.ID, nextRole(u.Role))
			}
		case "R":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m usersModel) helpKeys() string {
	return helpEntry("j/k", "nav") + "  " + helpEntry("r", "cycle role") + "  " + helpEntry("R", "reload")
}

func (m usersModel) View() string {
	if m.loading && len(m.users) == 0 {
		return " " + dimStyle.Render("loading users...")
	}
	if len(m.users) == 0 {
		if m.err != "" {
			return " " + errorStyle.Render("error: "+m.err)
		}
		return " " + dimStyle.Render("no users")
	}

	var sb strings.Builder
	sb.WriteString(" " + metaStyle.Render(fmt.Sprintf("%d of %d users", len(m.users), m.total)) + "\n\n")
	for i, u := range m.users {
		line := fmt.Sprintf("%-18s  %-26s  %s",
			truncStr(u.Username, 18),
			truncStr(u.FullName, 26),
			RoleStyle(u.Role).Render(u.Role))
		if i == m.cursor {
			sb.WriteString(" " + accentStyle.Render("› ") + line + "\n")
		} else {
			sb.WriteString("   " + line + "\n")
		}
	}
	switch {
	case m.saving:
		sb.WriteString("\n " + dimStyle.Render("saving...") + "\n")
	case m.err != "":
		sb.WriteString("\n " + errorStyle.Render(m.err) + "\n")
	case m.notice != "":
		sb.WriteString("\n " + okStyle.Render(m.notice) + "\n")
	}
	return sb.String()
}
