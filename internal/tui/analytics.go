package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avetikov/polisdesk/pkg/domain"
)

type analyticsLoadedMsg struct {
	summary *domain.DashboardSummary
	err     error
}

type analyticsModel struct {
	gw      dashboardFetcher
	summary *domain.DashboardSummary
	loading bool
	err     string
	width   int
	height  int
}

// dashboardFetcher is the slice of the API gateway this screen needs.
type dashboardFetcher interface {
	Dashboard(ctx context.Context) (*domain.DashboardSummary, error)
}

func newAnalyticsModel(gw dashboardFetcher) analyticsModel {
	return analyticsModel{gw: gw, loading: true}
}

func (m analyticsModel) Init() tea.Cmd {
	return m.load()
}

func (m analyticsModel) load() tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		summary, err := gw.Dashboard(context.Background())
		return analyticsLoadedMsg{summary: summary, err: err}
	}
}

func (m analyticsModel) Update(msg tea.Msg) (analyticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case analyticsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, authLostCmd(msg.err)
		}
		m.err = ""
		m.summary = msg.summary
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m analyticsModel) helpKeys() string {
	return helpEntry("r", "reload")
}

func (m analyticsModel) View() string {
	if m.loading && m.summary == nil {
		return " " + dimStyle.Render("loading dashboard...")
	}
	if m.err != "" {
		return " " + errorStyle.Render("error: "+m.err)
	}
	if m.summary == nil {
		return " " + dimStyle.Render("no data")
	}

	s := m.summary
	var sb strings.Builder
	row := func(label, value string) {
		sb.WriteString(fmt.Sprintf(" %s %s\n", metaStyle.Render(fmt.Sprintf("%-20s", label)), value))
	}

	sb.WriteString(" " + selectedStyle.Render("This month") + "\n\n")
	row("active contracts", numberStyle.Render(fmt.Sprintf("%d", s.ActiveContracts)))
	row("pending claims", numberStyle.Render(fmt.Sprintf("%d", s.PendingClaims)))
	row("revenue", amountStyle.Render(formatMoney(s.TotalRevenueMTD)))
	row("claims ratio", warnStyle.Render(fmt.Sprintf("%.1f%%", s.ClaimsRatio*100)))
	row("new clients", numberStyle.Render(fmt.Sprintf("%d", s.NewClientsMTD)))
	if s.TopPerformingAgent != "" {
		row("top agent", okStyle.Render(s.TopPerformingAgent))
	}
	return sb.String()
}
