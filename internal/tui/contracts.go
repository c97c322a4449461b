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

// statusFilters cycles "" (all) through the contract statuses.
var statusFilters = []string{
	"",
	domain.ContractDraft,
	domain.ContractActive,
	domain.ContractSuspended,
	domain.ContractExpired,
	domain.ContractCancelled,
}

type contractsLoadedMsg struct {
	page *api.ContractPage
	err  error
}

type contractsModel struct {
	gw        *api.Gateway
	contracts []domain.Contract
	total     int
	cursor    int
	filterIdx int
	detail    bool
	copied    bool
	loading   bool
	err       string
	width     int
	height    int
}

func newContractsModel(gw *api.Gateway) contractsModel {
	return contractsModel{gw: gw, loading: true}
}

func (m contractsModel) Init() tea.Cmd {
	return m.load()
}

func (m contractsModel) load() tea.Cmd {
	gw := m.gw
	status := statusFilters[m.filterIdx]
	return func() tea.Msg {
		page, err := gw.ListContracts(context.Background(), status, 0, pageSize)
		return contractsLoadedMsg{page: page, err: err}
	}
}

func (m contractsModel) Update(msg tea.Msg) (contractsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case contractsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, authLostCmd(msg.err)
		}
		m.err = ""
		m.contracts = msg.page.Contracts
		m.total = msg.page.Total
		if m.cursor >= len(m.contracts) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if !m.detail && m.cursor < len(m.contracts)-1 {
				m.cursor++
			}
		case "k", "up":
			if !m.detail && m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if len(m.contracts) > 0 {
				m.detail = true
				m.copied = false
			}
		case "esc":
			m.detail = false
			m.copied = false
		case "f":
			if !m.detail {
				m.filterIdx = (m.filterIdx + 1) % len(statusFilters)
				m.loading = true
				m.cursor = 0
				return m, m.load()
			}
		case "c":
			if m.detail && m.cursor < len(m.contracts) {
				if clipboard.WriteAll(m.contracts[m.cursor].ContractNumber) == nil {
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

func (m contractsModel) helpKeys() string {
	if m.detail {
		return helpEntry("c", "copy number") + "  " + helpEntry("esc", "back")
	}
	return helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " +
		helpEntry("f", "filter") + "  " + helpEntry("r", "reload")
}

func (m contractsModel) View() string {
	if m.loading && len(m.contracts) == 0 {
		return " " + dimStyle.Render("loading contracts...")
	}
	if m.err != "" {
		return " " + errorStyle.Render("error: "+m.err)
	}
	if m.detail && len(m.contracts) > 0 {
		return m.detailView()
	}

	var sb strings.Builder
	filter := statusFilters[m.filterIdx]
	header := fmt.Sprintf("%d of %d contracts", len(m.contracts), m.total)
	if filter != "" {
		header += "  " + StatusStyle(filter).Render("["+filter+"]")
	}
	sb.WriteString(" " + metaStyle.Render(header) + "\n\n")

	if len(m.contracts) == 0 {
		sb.WriteString(" " + dimStyle.Render("no contracts match") + "\n")
		return sb.String()
	}
	for i, c := range m.contracts {
		line := fmt.Sprintf("%-14s  %-24s  %12s  %s",
			truncStr(c.ContractNumber, 14),
			truncStr(c.ClientName, 24),
			amountStyle.Render(formatMoney(c.PremiumAmount)),
			StatusStyle(c.Status).Render(c.Status))
		if i == m.cursor {
			sb.WriteString(" " + accentStyle.Render("› ") + line + "\n")
		} else {
			sb.WriteString("   " + line + "\n")
		}
	}
	return sb.String()
}

func (m contractsModel) detailView() string {
	c := m.contracts[m.cursor]
	var sb strings.Builder

	row := func(label, value string) {
		if value == "" {
			value = metaStyle.Render("—")
		}
		sb.WriteString(fmt.Sprintf(" %s %s\n", metaStyle.Render(fmt.Sprintf("%-16s", label)), value))
	}

	sb.WriteString(" " + selectedStyle.Render(c.ContractNumber) + "  " +
		StatusStyle(c.Status).Render(c.Status) + "\n\n")
	row("client", normalStyle.Render(c.ClientName))
	row("product", normalStyle.Render(c.ProductName))
	row("agent", normalStyle.Render(c.AgentName))
	row("premium", amountStyle.Render(formatMoney(c.PremiumAmount)))
	row("coverage", amountStyle.Render(formatMoney(c.CoverageAmount)))
	row("period", normalStyle.Render(c.StartDate+" to "+c.EndDate))
	row("created", normalStyle.Render(formatTime(c.CreatedAt)))
	if m.copied {
		sb.WriteString("\n " + okStyle.Render("contract number copied") + "\n")
	}
	return sb.String()
}
