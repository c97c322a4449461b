package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avetikov/polisdesk/pkg/api"
	"github.com/avetikov/polisdesk/pkg/domain"
)

type clientsLoadedMsg struct {
	page *api.ClientPage
	err  error
}

type clientsModel struct {
	gw      *api.Gateway
	clients []domain.Client
	total   int
	cursor  int
	detail  bool
	copied  bool
	loading bool
	err     string
	width   int
	height  int
}

func newClientsModel(gw *api.Gateway) clientsModel {
	return clientsModel{gw: gw, loading: true}
}

func (m clientsModel) Init() tea.Cmd {
	return m.load()
}

func (m clientsModel) load() tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		page, err := gw.ListClients(context.Background(), 0, pageSize)
		return clientsLoadedMsg{page: page, err: err}
	}
}

func (m clientsModel) Update(msg tea.Msg) (clientsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case clientsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, authLostCmd(msg.err)
		}
		m.err = ""
		m.clients = msg.page.Clients
		m.total = msg.page.Total
		if m.cursor >= len(m.clients) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if !m.detail && m.cursor < len(m.clients)-1 {
				m.cursor++
			}
		case "k", "up":
			if !m.detail && m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if len(m.clients) > 0 {
				m.detail = true
				m.copied = false
			}
		case "esc":
			m.detail = false
			m.copied = false
		case "c":
			if m.detail && m.cursor < len(m.clients) {
				if clipboard.WriteAll(m.clients[m.cursor].Email) == nil {
					m.copied = true
				}
			}
		case "r":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m clientsModel) helpKeys() string {
	if m.detail {
		return helpEntry("c", "copy email") + "  " + helpEntry("esc", "back")
	}
	return helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("r", "reload")
}

func (m clientsModel) View() string {
	if m.loading && len(m.clients) == 0 {
		return " " + dimStyle.Render("loading clients...")
	}
	if m.err != "" {
		return " " + errorStyle.Render("error: "+m.err)
	}
	if len(m.clients) == 0 {
		return " " + dimStyle.Render("no clients yet")
	}
	if m.detail {
		return m.detailView()
	}

	var sb strings.Builder
	sb.WriteString(" " + metaStyle.Render(fmt.Sprintf("%d of %d clients", len(m.clients), m.total)) + "\n\n")
	for i, c := range m.clients {
		line := fmt.Sprintf("%-28s  %-30s  %s",
			truncStr(c.FullName(), 28), truncStr(c.Email, 30), truncStr(c.Phone, 16))
		if i == m.cursor {
			sb.WriteString(" " + accentStyle.Render("› ") + selectedStyle.Render(line) + "\n")
		} else {
			sb.WriteString("   " + normalStyle.Render(line) + "\n")
		}
	}
	return sb.String()
}

func (m clientsModel) detailView() string {
	c := m.clients[m.cursor]
	var sb strings.Builder

	row := func(label, value string) {
		if value == "" {
			value = metaStyle.Render("—")
		} else {
			value = normalStyle.Render(value)
		}
		sb.WriteString(fmt.Sprintf(" %s %s\n", metaStyle.Render(fmt.Sprintf("%-16s", label)), value))
	}

	sb.WriteString(" " + selectedStyle.Render(c.FullName()) + "  " + numberStyle.Render(fmt.Sprintf("#%d", c.ID)) + "\n\n")
	row("email", c.Email)
	row("phone", c.Phone)
	row("address", c.Address)
	row("date of birth", c.DateOfBirth)
	row("identification", c.IdentificationNumber)
	row("created", formatTime(c.CreatedAt))
	if m.copied {
		sb.WriteString("\n " + okStyle.Render("email copied") + "\n")
	}
	return sb.String()
}
