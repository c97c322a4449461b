package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/avetikov/polisdesk/internal/tui"
	"github.com/avetikov/polisdesk/pkg/api"
	"github.com/avetikov/polisdesk/pkg/authgw"
	"github.com/avetikov/polisdesk/pkg/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	authURL string
	apiURL  string
	credDir string
	logger  *slog.Logger
	logFile io.Closer
}

func loadConfig() (*config, error) {
	authURL := os.Getenv("POLISDESK_AUTH_URL")
	if authURL == "" {
		authURL = "http://localhost:8001"
	}
	apiURL := os.Getenv("POLISDESK_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8000"
	}
	credDir, err := session.DefaultCredentialsDir()
	if err != nil {
		return nil, fmt.Errorf("resolve credentials dir: %w", err)
	}

	level := slog.LevelWarn
	if s := os.Getenv("POLISDESK_LOG_LEVEL"); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("bad POLISDESK_LOG_LEVEL %q: %w", s, err)
		}
	}

	// The TUI owns the terminal, so logs go to a file next to the stored
	// credentials rather than stderr.
	if err := os.MkdirAll(credDir, 0700); err != nil {
		return nil, fmt.Errorf("create %s: %w", credDir, err)
	}
	logPath := filepath.Join(credDir, "polisdesk.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))

	return &config{
		authURL: authURL,
		apiURL:  apiURL,
		credDir: credDir,
		logger:  logger,
		logFile: f,
	}, nil
}

// buildSession wires the credential store, auth gateway and session
// controller, and hydrates from disk.
func buildSession(cfg *config) (*session.Controller, error) {
	store := session.NewFileStore(cfg.credDir)
	gw := authgw.New(cfg.authURL)
	ctrl := session.NewController(gw, store, cfg.logger)
	if err := ctrl.Hydrate(context.Background()); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return ctrl, nil
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer cfg.logFile.Close() //nolint:errcheck

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("polisdesk " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "login":
			return runLogin(cfg)
		case "logout":
			return runLogout(cfg)
		case "whoami":
			return runWhoami(cfg)
		default:
			return fmt.Errorf("unknown command %q, see 'polisdesk help'", os.Args[1])
		}
	}

	ctrl, err := buildSession(cfg)
	if err != nil {
		return err
	}
	apiGW := api.New(cfg.apiURL, ctrl)

	app := tui.NewApp(apiGW, ctrl, version)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// promptCredentials reads a username and a masked password from the terminal.
func promptCredentials() (string, string, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("read username: %w", err)
	}
	username = strings.TrimSpace(username)

	fmt.Print("password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return username, string(pw), nil
}

func runLogin(cfg *config) error {
	ctrl, err := buildSession(cfg)
	if err != nil {
		return err
	}
	if u := ctrl.CurrentUser(); u != nil {
		fmt.Printf("Already signed in as %s. Run 'polisdesk logout' first to switch accounts.\n", u.Username)
		return nil
	}

	username, password, err := promptCredentials()
	if err != nil {
		return err
	}
	if err := ctrl.Login(context.Background(), username, password); err != nil {
		switch {
		case errors.Is(err, authgw.ErrInvalidCredentials):
			return fmt.Errorf("wrong username or password")
		case errors.Is(err, authgw.ErrServerUnavailable):
			return fmt.Errorf("authentication server at %s is unreachable", cfg.authURL)
		default:
			return err
		}
	}
	u := ctrl.CurrentUser()
	fmt.Printf("Signed in as %s (%s).\n", u.Username, u.Role)
	return nil
}

func runLogout(cfg *config) error {
	ctrl, err := buildSession(cfg)
	if err != nil {
		return err
	}
	if !ctrl.IsAuthenticated() {
		fmt.Println("Already signed out.")
		return nil
	}
	ctrl.Logout()
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cfg *config) error {
	ctrl, err := buildSession(cfg)
	if err != nil {
		return err
	}
	u := ctrl.CurrentUser()
	if u == nil {
		fmt.Println("Not signed in. Run 'polisdesk login'.")
		return nil
	}
	fmt.Printf("%s (%s)\n", u.Username, u.Role)
	if u.Email != "" {
		fmt.Println(u.Email)
	}
	if !ctrl.Verified() {
		fmt.Println("note: credentials restored from disk, not yet verified with the server")
	}
	return nil
}
