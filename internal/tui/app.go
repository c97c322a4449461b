package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avetikov/polisdesk/internal/browser"
	"github.com/avetikov/polisdesk/pkg/api"
	"github.com/avetikov/polisdesk/pkg/domain"
	"github.com/avetikov/polisdesk/pkg/session"
)

type view int

const (
	viewLogin view = iota
	viewClients
	viewContracts
	viewClaims
	viewAnalytics
	viewUsers
)

// authLostMsg tells the root model the session died server-side and the user
// has to sign in again.
type authLostMsg struct {
	err error
}

// authLostCmd turns an API failure into an authLostMsg when it was an
// authorization failure. Other errors stay on the screen that hit them.
func authLostCmd(err error) tea.Cmd {
	if !errors.Is(err, api.ErrAuthorization) && !errors.Is(err, session.ErrNotAuthenticated) {
		return nil
	}
	return func() tea.Msg { return authLostMsg{err: err} }
}

type helpItem struct {
	label string
	url   string
}

var helpItems = []helpItem{
	{"User guide", "https://polisdesk.dev/docs/terminal"},
	{"Keyboard reference", "https://polisdesk.dev/docs/terminal/keys"},
	{"Report a problem", "https://github.com/avetikov/polisdesk/issues"},
}

// App is the root Bubbletea model.
type App struct {
	gw   *api.Gateway
	sess *session.Controller

	view      view
	login     loginModel
	clients   clientsModel
	contracts contractsModel
	claims    claimsModel
	analytics analyticsModel
	users     usersModel

	helpOpen   bool
	helpCursor int

	user    *domain.UserProfile
	version string
	width   int
	height  int
}

// NewApp creates the TUI application. The session controller should already
// be hydrated; a live session skips the login screen.
func NewApp(gw *api.Gateway, sess *session.Controller, version string) App {
	a := App{
		gw:      gw,
		sess:    sess,
		version: version,
		login:   newLoginModel(sess),
	}
	if sess.IsAuthenticated() {
		a.enterWorkspace()
	}
	return a
}

// enterWorkspace builds the signed-in screens from the current session user.
func (a *App) enterWorkspace() {
	a.user = a.sess.CurrentUser()
	self := ""
	if a.user != nil {
		self = a.user.Username
	}
	a.clients = newClientsModel(a.gw)
	a.contracts = newContractsModel(a.gw)
	a.claims = newClaimsModel(a.gw)
	a.analytics = newAnalyticsModel(a.gw)
	a.users = newUsersModel(a.gw, self)
	a.view = viewClients
}

func (a App) Init() tea.Cmd {
	if a.view == viewLogin {
		return a.login.Init()
	}
	return a.clients.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.login, _ = a.login.Update(bodyMsg)
		a.clients, _ = a.clients.Update(bodyMsg)
		a.contracts, _ = a.contracts.Update(bodyMsg)
		a.claims, _ = a.claims.Update(bodyMsg)
		a.analytics, _ = a.analytics.Update(bodyMsg)
		a.users, _ = a.users.Update(bodyMsg)
		return a, nil

	case loginDoneMsg:
		if msg.err == nil {
			a.enterWorkspace()
			return a, a.clients.Init()
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd

	case authLostMsg:
		a.signOutLocally("your session expired, sign in again")
		return a, nil

	case tea.KeyMsg:
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q", "ctrl+c":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(helpItems)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				browser.Open(helpItems[a.helpCursor].url) //nolint:errcheck // best-effort browser open
			}
			return a, nil
		}

		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		if a.view == viewLogin {
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, cmd
		}

		if !a.isEditing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "h":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "s":
				a.sess.Logout()
				a.signOutLocally("signed out")
				return a, nil
			case "1":
				return a.switchTab(viewClients)
			case "2":
				return a.switchTab(viewContracts)
			case "3":
				return a.switchTab(viewClaims)
			case "4":
				return a.switchTab(viewAnalytics)
			case "5":
				if a.canManageUsers() {
					return a.switchTab(viewUsers)
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewClients:
		a.clients, cmd = a.clients.Update(msg)
	case viewContracts:
		a.contracts, cmd = a.contracts.Update(msg)
	case viewClaims:
		a.claims, cmd = a.claims.Update(msg)
	case viewAnalytics:
		a.analytics, cmd = a.analytics.Update(msg)
	case viewUsers:
		a.users, cmd = a.users.Update(msg)
	}
	return a, cmd
}

func (a App) switchTab(v view) (tea.Model, tea.Cmd) {
	if a.view == v {
		return a, nil
	}
	a.view = v
	switch v {
	case viewClients:
		return a, a.clients.Init()
	case viewContracts:
		return a, a.contracts.Init()
	case viewClaims:
		return a, a.claims.Init()
	case viewAnalytics:
		return a, a.analytics.Init()
	case viewUsers:
		return a, a.users.Init()
	}
	return a, nil
}

// signOutLocally drops back to the login screen with a notice. The session
// controller state is already cleared by whoever triggered this.
func (a *App) signOutLocally(notice string) {
	a.user = nil
	a.login = newLoginModel(a.sess)
	a.login.notice = notice
	a.view = viewLogin
	a.helpOpen = false
}

func (a App) canManageUsers() bool {
	return a.user != nil && a.user.CanManageUsers()
}

func (a App) isEditing() bool {
	return a.view == viewClaims && a.claims.mode != decisionNone
}

func (a App) View() string {
	// Header: wordmark, then identity line
	wordmark := renderWordmark()
	pad := (a.width - lipgloss.Width(wordmark)) / 2
	if pad < 0 {
		pad = 0
	}
	header := strings.Repeat(" ", pad) + wordmark

	identity := ""
	if a.user != nil {
		identity = metaStyle.Render(a.user.Username) + " " + RoleStyle(a.user.Role).Render(a.user.Role)
		if !a.sess.Verified() {
			identity += " " + warnStyle.Render("offline")
		}
	} else if a.version != "" {
		identity = metaStyle.Render("v" + a.version)
	}
	if identity != "" {
		ipad := (a.width - lipgloss.Width(identity)) / 2
		if ipad < 0 {
			ipad = 0
		}
		header += "\n" + strings.Repeat(" ", ipad) + identity
	} else {
		header += "\n"
	}

	// Tab bar, hidden on the login screen
	tabBar := ""
	if a.view != viewLogin {
		type tabEntry struct {
			key  string
			name string
			v    view
		}
		tabs := []tabEntry{
			{"1", "Clients", viewClients},
			{"2", "Contracts", viewContracts},
			{"3", "Claims", viewClaims},
			{"4", "Analytics", viewAnalytics},
		}
		if a.canManageUsers() {
			tabs = append(tabs, tabEntry{"5", "Users", viewUsers})
		}
		colWidth := a.width / len(tabs)
		var sb strings.Builder
		for _, t := range tabs {
			var label string
			if t.v == a.view {
				label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
			} else {
				label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
			}
			labelWidth := lipgloss.Width(label)
			leftPad := (colWidth - labelWidth) / 2
			if leftPad < 0 {
				leftPad = 0
			}
			rightPad := colWidth - labelWidth - leftPad
			if rightPad < 0 {
				rightPad = 0
			}
			sb.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
		}
		tabBar = sb.String()
	}

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = " " + helpEntry("tab", "next field") + "  " + helpEntry("enter", "sign in") + "  " + helpEntry("ctrl+c", "quit")
	case viewClients:
		body = a.clients.View()
		help = " " + a.tabsHelp() + a.clients.helpKeys() + a.globalHelp()
	case viewContracts:
		body = a.contracts.View()
		help = " " + a.tabsHelp() + a.contracts.helpKeys() + a.globalHelp()
	case viewClaims:
		body = a.claims.View()
		help = " " + a.tabsHelp() + a.claims.helpKeys() + a.globalHelp()
	case viewAnalytics:
		body = a.analytics.View()
		help = " " + a.tabsHelp() + a.analytics.helpKeys() + a.globalHelp()
	case viewUsers:
		body = a.users.View()
		help = " " + a.tabsHelp() + a.users.helpKeys() + a.globalHelp()
	}

	if a.helpOpen {
		body = helpView(a.helpCursor)
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "close")
	}

	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar, body, help)
}

func (a App) tabsHelp() string {
	if a.canManageUsers() {
		return helpEntry("1-5", "tabs") + "  "
	}
	return helpEntry("1-4", "tabs") + "  "
}

func (a App) globalHelp() string {
	if a.isEditing() {
		return ""
	}
	return "  " + helpEntry("s", "sign out") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
}

func helpView(cursor int) string {
	var sb strings.Builder
	sb.WriteString("\n " + selectedStyle.Render("Help") + "\n\n")
	for i, item := range helpItems {
		if i == cursor {
			sb.WriteString(" " + accentStyle.Render("› ") + selectedStyle.Render(item.label) + "\n")
		} else {
			sb.WriteString("   " + normalStyle.Render(item.label) + "\n")
		}
	}
	sb.WriteString("\n " + dimStyle.Render("enter opens the page in your browser") + "\n")
	return sb.String()
}
