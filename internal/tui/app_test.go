package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avetikov/polisdesk/pkg/authgw"
	"github.com/avetikov/polisdesk/pkg/domain"
	"github.com/avetikov/polisdesk/pkg/session"
)

// fakeAuth satisfies session.AuthAPI with canned responses.
type fakeAuth struct {
	user domain.UserProfile
}

func (f *fakeAuth) Login(context.Context, string, string) (*authgw.LoginResult, error) {
	return &authgw.LoginResult{
		AccessToken:  "tok",
		RefreshToken: "ref",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		User:         f.user,
	}, nil
}

func (f *fakeAuth) Register(context.Context, authgw.RegisterRequest) (string, error) {
	return f.user.ID, nil
}

func (f *fakeAuth) Refresh(context.Context, string) (*authgw.RefreshResult, error) {
	return &authgw.RefreshResult{AccessToken: "tok2", TokenType: "bearer", ExpiresIn: 3600}, nil
}

func (f *fakeAuth) Verify(context.Context, string) (*domain.UserProfile, error) {
	u := f.user
	return &u, nil
}

func (f *fakeAuth) Logout(context.Context, string) error { return nil }

func signedInController(t *testing.T, role string) *session.Controller {
	t.Helper()
	auth := &fakeAuth{user: domain.UserProfile{
		ID:       "u-1",
		Username: "someone",
		Email:    "someone@polisdesk.local",
		FullName: "Some One",
		Role:     role,
	}}
	ctrl := session.NewController(auth, session.NewMemStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := ctrl.Login(context.Background(), "someone", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return ctrl
}

func anonymousController() *session.Controller {
	return session.NewController(&fakeAuth{}, session.NewMemStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sized(a App) App {
	model, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return model.(App)
}

func TestAppStartsAtLoginWhenAnonymous(t *testing.T) {
	a := sized(NewApp(nil, anonymousController(), "test"))
	if a.view != viewLogin {
		t.Fatalf("view = %v, want login", a.view)
	}
	if !strings.Contains(a.View(), "Sign in") {
		t.Errorf("expected sign-in screen, got:\n%s", a.View())
	}
}

func TestAppSkipsLoginWithLiveSession(t *testing.T) {
	a := sized(NewApp(nil, signedInController(t, domain.RoleAgent), "test"))
	if a.view != viewClients {
		t.Fatalf("view = %v, want clients", a.view)
	}
	view := a.View()
	if !strings.Contains(view, "someone") {
		t.Errorf("expected username in header, got:\n%s", view)
	}
}

func TestAppUsersTabGatedByRole(t *testing.T) {
	agent := sized(NewApp(nil, signedInController(t, domain.RoleAgent), "test"))
	if strings.Contains(agent.View(), "Users") {
		t.Errorf("agent must not see the Users tab:\n%s", agent.View())
	}
	model, _ := agent.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("5")})
	if model.(App).view == viewUsers {
		t.Error("agent switched to the users screen")
	}

	admin := sized(NewApp(nil, signedInController(t, domain.RoleAdmin), "test"))
	if !strings.Contains(admin.View(), "Users") {
		t.Errorf("admin should see the Users tab:\n%s", admin.View())
	}
	model, _ = admin.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("5")})
	if model.(App).view != viewUsers {
		t.Error("admin could not switch to the users screen")
	}
}

func TestAppTabSwitching(t *testing.T) {
	a := sized(NewApp(nil, signedInController(t, domain.RoleManager), "test"))

	model, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	a = model.(App)
	if a.view != viewContracts {
		t.Fatalf("view = %v after 2, want contracts", a.view)
	}
	if cmd == nil {
		t.Error("expected a load command when entering a tab")
	}

	// Re-pressing the active tab must not reload.
	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	if cmd != nil {
		t.Error("expected no reload for the already-active tab")
	}
}

func TestAppAuthLostReturnsToLogin(t *testing.T) {
	a := sized(NewApp(nil, signedInController(t, domain.RoleAgent), "test"))

	model, _ := a.Update(authLostMsg{err: errors.New("401")})
	a = model.(App)
	if a.view != viewLogin {
		t.Fatalf("view = %v after auth loss, want login", a.view)
	}
	if !strings.Contains(a.View(), "session expired") {
		t.Errorf("expected expiry notice, got:\n%s", a.View())
	}
}

func TestAppSignOutKey(t *testing.T) {
	ctrl := signedInController(t, domain.RoleAgent)
	a := sized(NewApp(nil, ctrl, "test"))

	model, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	a = model.(App)
	if a.view != viewLogin {
		t.Fatalf("view = %v after sign out, want login", a.view)
	}
	if ctrl.IsAuthenticated() {
		t.Error("controller still authenticated after sign out")
	}
	if !strings.Contains(a.View(), "signed out") {
		t.Errorf("expected signed-out notice, got:\n%s", a.View())
	}
}

func TestAppQuitKeys(t *testing.T) {
	a := sized(NewApp(nil, signedInController(t, domain.RoleAgent), "test"))
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	login := sized(NewApp(nil, anonymousController(), "test"))
	_, cmd = login.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command from the login screen")
	}
}

func TestAuthLostCmdOnlyForAuthErrors(t *testing.T) {
	if authLostCmd(errors.New("boom")) != nil {
		t.Error("plain errors must not trigger a sign-out")
	}
	if authLostCmd(session.ErrNotAuthenticated) == nil {
		t.Error("expected a command for ErrNotAuthenticated")
	}
}
