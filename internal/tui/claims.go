package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avetikov/polisdesk/pkg/api"
	"github.com/avetikov/polisdesk/pkg/domain"
)

type claimsLoadedMsg struct {
	page *api.ClaimPage
	err  error
}

type claimDecidedMsg struct {
	claim *domain.Claim
	err   error
}

// decisionMode tracks the inline approve form on the claim detail view.
type decisionMode int

const (
	decisionNone decisionMode = iota
	decisionApproveAmount
	decisionNotes
)

type claimsModel struct {
	gw       *api.Gateway
	claims   []domain.Claim
	total    int
	cursor   int
	detail   bool
	loading  bool
	deciding bool
	err      string
	notice   string

	// inline decision form
	mode      decisionMode
	approving bool
	amount    string
	notes     string

	width  int
	height int
}

func newClaimsModel(gw *api.Gateway) claimsModel {
	return claimsModel{gw: gw, loading: true}
}

func (m claimsModel) Init() tea.Cmd {
	return m.load()
}

func (m claimsModel) load() tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		page, err := gw.ListClaims(context.Background(), "", 0, pageSize)
		return claimsLoadedMsg{page: page, err: err}
	}
}

func (m claimsModel) decide(id int, decision api.ClaimDecision) tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		claim, err := gw.DecideClaim(context.Background(), id, decision)
		return claimDecidedMsg{claim: claim, err: err}
	}
}

// decidable reports whether the claim under the cursor can still be
// approved or rejected.
func (m claimsModel) decidable() bool {
	if m.cursor >= len(m.claims) {
		return false
	}
	s := m.claims[m.cursor].Status
	return s == domain.ClaimSubmitted || s == domain.ClaimUnderReview
}

func (m claimsModel) Update(msg tea.Msg) (claimsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case claimsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, authLostCmd(msg.err)
		}
		m.err = ""
		m.claims = msg.page.Claims
		m.total = msg.page.Total
		if m.cursor >= len(m.claims) {
			m.cursor = 0
		}
		return m, nil

	case claimDecidedMsg:
		m.deciding = false
		if msg.err != nil {
			m.err = describeDecisionError(msg.err)
			return m, authLostCmd(msg.err)
		}
		m.err = ""
		m.notice = "decision recorded"
		if m.cursor < len(m.claims) && msg.claim != nil {
			m.claims[m.cursor] = *msg.claim
		}
		return m, nil
	}

	if m.mode != decisionNone {
		return m.updateDecisionForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "j", "down":
			if !m.detail && m.cursor < len(m.claims)-1 {
				m.cursor++
			}
		case "k", "up":
			if !m.detail && m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if len(m.claims) > 0 {
				m.detail = true
				m.notice = ""
				m.err = ""
			}
		case "esc":
			m.detail = false
			m.notice = ""
			m.err = ""
		case "a":
			if m.detail && m.decidable() && !m.deciding {
				m.mode = decisionApproveAmount
				m.approving = true
				m.amount = fmt.Sprintf("%.2f", m.claims[m.cursor].ClaimedAmount)
				m.notes = ""
				m.err = ""
				m.notice = ""
			}
		case "x":
			if m.detail && m.decidable() && !m.deciding {
				m.mode = decisionNotes
				m.approving = false
				m.notes = ""
				m.err = ""
				m.notice = ""
			}
		case "r":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m claimsModel) updateDecisionForm(msg tea.Msg) (claimsModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc":
		m.mode = decisionNone
		return m, nil
	case "enter":
		if m.approving && m.mode == decisionApproveAmount {
			m.mode = decisionNotes
			return m, nil
		}
		return m.submitDecision()
	case "tab":
		if m.approving {
			if m.mode == decisionApproveAmount {
				m.mode = decisionNotes
			} else {
				m.mode = decisionApproveAmount
			}
		}
		return m, nil
	default:
		if m.mode == decisionApproveAmount {
			m.amount = editRune(m.amount, key.String())
		} else {
			m.notes = editRune(m.notes, key.String())
		}
		return m, nil
	}
}

func (m claimsModel) submitDecision() (claimsModel, tea.Cmd) {
	claim := m.claims[m.cursor]
	decision := api.ClaimDecision{Notes: strings.TrimSpace(m.notes)}
	if m.approving {
		var amount float64
		if _, err := fmt.Sscanf(strings.TrimSpace(m.amount), "%f", &amount); err != nil || amount < 0 {
			m.err = "enter a valid approved amount"
			m.mode = decisionApproveAmount
			return m, nil
		}
		decision.Decision = "approved"
		decision.ApprovedAmount = &amount
	} else {
		decision.Decision = "rejected"
	}
	m.mode = decisionNone
	m.deciding = true
	m.err = ""
	return m, m.decide(claim.ID, decision)
}

func describeDecisionError(err error) string {
	if api.IsStatus(err, 403) {
		return "you are not allowed to decide claims"
	}
	if api.IsStatus(err, 409) {
		return "claim was already decided, reload to see the result"
	}
	return err.Error()
}

func (m claimsModel) helpKeys() string {
	if m.mode != decisionNone {
		return helpEntry("enter", "confirm") + "  " + helpEntry("esc", "cancel")
	}
	if m.detail {
		if m.decidable() {
			return helpEntry("a", "approve") + "  " + helpEntry("x", "reject") + "  " + helpEntry("esc", "back")
		}
		return helpEntry("esc", "back")
	}
	return helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("r", "reload")
}

func (m claimsModel) View() string {
	if m.loading && len(m.claims) == 0 {
		return " " + dimStyle.Render("loading claims...")
	}
	if m.err != "" && !m.detail {
		return " " + errorStyle.Render("error: "+m.err)
	}
	if len(m.claims) == 0 {
		return " " + dimStyle.Render("no claims yet")
	}
	if m.detail {
		return m.detailView()
	}

	var sb strings.Builder
	sb.WriteString(" " + metaStyle.Render(fmt.Sprintf("%d of %d claims", len(m.claims), m.total)) + "\n\n")
	for i, c := range m.claims {
		line := fmt.Sprintf("%-14s  %-24s  %12s  %s",
			truncStr(c.ClaimNumber, 14),
			truncStr(c.ClientName, 24),
			amountStyle.Render(formatMoney(c.ClaimedAmount)),
			StatusStyle(c.Status).Render(c.Status))
		if i == m.cursor {
			sb.WriteString(" " + accentStyle.Render("› ") + line + "\n")
		} else {
			sb.WriteString("   " + line + "\n")
		}
	}
	return sb.String()
}

func (m claimsModel) detailView() string {
	c := m.claims[m.cursor]
	var sb strings.Builder

	row := func(label, value string) {
		if value == "" {
			value = metaStyle.Render("—")
		}
		sb.WriteString(fmt.Sprintf(" %s %s\n", metaStyle.Render(fmt.Sprintf("%-16s", label)), value))
	}

	sb.WriteString(" " + selectedStyle.Render(c.ClaimNumber) + "  " +
		StatusStyle(c.Status).Render(c.Status) + "\n\n")
	row("contract", normalStyle.Render(c.ContractNumber))
	row("client", normalStyle.Render(c.ClientName))
	row("incident", normalStyle.Render(c.IncidentDate))
	row("reported", normalStyle.Render(c.ReportedDate))
	row("claimed", amountStyle.Render(formatMoney(c.ClaimedAmount)))
	if c.ApprovedAmount != nil {
		row("approved", okStyle.Render(formatMoney(*c.ApprovedAmount)))
	}
	row("adjuster", normalStyle.Render(c.AdjusterName))
	if c.AdjusterNotes != "" {
		row("notes", normalStyle.Render(truncStr(c.AdjusterNotes, 60)))
	}
	sb.WriteString("\n " + normalStyle.Render(truncStr(c.Description, 100)) + "\n")

	switch {
	case m.mode == decisionApproveAmount:
		sb.WriteString("\n " + inputPromptStyle.Render("approved amount ") + selectedStyle.Render(m.amount+"▎") + "\n")
		if m.err != "" {
			sb.WriteString(" " + errorStyle.Render(m.err) + "\n")
		}
	case m.mode == decisionNotes:
		verb := "rejection"
		if m.approving {
			verb = "approval"
		}
		sb.WriteString("\n " + inputPromptStyle.Render(verb+" notes ") + selectedStyle.Render(m.notes+"▎") + "\n")
	case m.deciding:
		sb.WriteString("\n " + dimStyle.Render("submitting decision...") + "\n")
	case m.err != "":
		sb.WriteString("\n " + errorStyle.Render(m.err) + "\n")
	case m.notice != "":
		sb.WriteString("\n " + okStyle.Render(m.notice) + "\n")
	}
	return sb.String()
}
