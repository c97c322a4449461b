// Command authstub is a development stand-in for the polisdesk
// authentication service. It speaks the same wire protocol as the real
// thing: form-encoded login, JSON refresh, bearer verify and logout, with
// {"detail": ...} error bodies. Tokens are opaque and live in memory, so a
// restart signs everyone out.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/avetikov/polisdesk/pkg/domain"
)

const tokenTTL = 3600 // seconds

type account struct {
	user     domain.UserProfile
	passHash []byte
}

type issuedToken struct {
	username string
	expires  time.Time
}

type authStore struct {
	mu       sync.Mutex
	accounts map[string]*account     // by username
	access   map[string]issuedToken  // access token -> owner
	refresh  map[string]string       // refresh token -> username
	log      *slog.Logger
}

func newAuthStore(log *slog.Logger) *authStore {
	s := &authStore{
		accounts: make(map[string]*account),
		access:   make(map[string]issuedToken),
		refresh:  make(map[string]string),
		log:      log,
	}
	s.seed()
	return s
}

// seed creates one demo account per role. Every password is "polisdesk".
func (s *authStore) seed() {
	demo := []struct {
		username, fullName, role string
	}{
		{"admin", "Ada Administrator", domain.RoleAdmin},
		{"manager", "Mikhail Manager", domain.RoleManager},
		{"agent1", "Agnes Agent", domain.RoleAgent},
		{"adjuster1", "Andrei Adjuster", domain.RoleAdjuster},
		{"operator1", "Olga Operator", domain.RoleOperator},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("polisdesk"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	for _, d := range demo {
		s.accounts[d.username] = &account{
			user: domain.UserProfile{
				ID:       uuid.NewString(),
				Username: d.username,
				Email:    d.username + "@polisdesk.local",
				FullName: d.fullName,
				Role:     d.role,
			},
			passHash: hash,
		}
	}
}

func (s *authStore) issue(username string) (access, refreshTok string) {
	access = uuid.NewString()
	refreshTok = uuid.NewString()
	s.access[access] = issuedToken{username: username, expires: time.Now().Add(tokenTTL * time.Second)}
	s.refresh[refreshTok] = username
	return access, refreshTok
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return after
	}
	return ""
}

type tokenResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type"`
	ExpiresIn    int                `json:"expires_in"`
	User         domain.UserProfile `json:"user"`
}

func (s *authStore) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[username]
	if !ok || bcrypt.CompareHashAndPassword(acct.passHash, []byte(password)) != nil {
		s.log.Info("login rejected", "username", username)
		writeDetail(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	access, refreshTok := s.issue(username)
	s.log.Info("login ok", "username", username)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refreshTok,
		TokenType:    "bearer",
		ExpiresIn:    tokenTTL,
		User:         acct.user,
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (s *authStore) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	fields := map[string]string{}
	if req.Username == "" {
		fields["username"] = "required"
	}
	if req.Password == "" {
		fields["password"] = "required"
	} else if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	switch req.Role {
	case "", domain.RoleAdmin, domain.RoleManager, domain.RoleAgent, domain.RoleAdjuster, domain.RoleOperator:
	default:
		fields["role"] = "unknown role"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": "validation failed",
			"fields": fields,
		})
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleOperator
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Username]; exists {
		writeDetail(w, http.StatusConflict, "username already taken")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "hash failure")
		return
	}
	acct := &account{
		user: domain.UserProfile{
			ID:       uuid.NewString(),
			Username: req.Username,
			Email:    req.Email,
			FullName: req.FullName,
			Role:     req.Role,
		},
		passHash: hash,
	}
	s.accounts[req.Username] = acct
	s.log.Info("registered", "username", req.Username, "role", req.Role)
	writeJSON(w, http.StatusCreated, map[string]any{"user": acct.user})
}

func (s *authStore) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.refresh[req.RefreshToken]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "refresh token is not valid")
		return
	}
	// Rotation: the presented refresh token is spent.
	delete(s.refresh, req.RefreshToken)
	acct := s.accounts[username]
	access, refreshTok := s.issue(username)
	s.log.Debug("refreshed", "username", username)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refreshTok,
		TokenType:    "bearer",
		ExpiresIn:    tokenTTL,
		User:         acct.user,
	})
}

func (s *authStore) handleVerify(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.access[tok]
	if !ok || time.Now().After(issued.expires) {
		writeDetail(w, http.StatusUnauthorized, "token is not valid")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  s.accounts[issued.username].user,
	})
}

func (s *authStore) handleLogout(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if issued, ok := s.access[tok]; ok {
		delete(s.access, tok)
		// Revoke the user's refresh tokens too.
		for rt, username := range s.refresh {
			if username == issued.username {
				delete(s.refresh, rt)
			}
		}
		s.log.Info("logout", "username", issued.username)
	}
	w.WriteHeader(http.StatusNoContent)
}

func newRouter(s *authStore) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "OK") //nolint:errcheck
	}).Methods("GET")
	r.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods("POST")
	r.HandleFunc("/auth/verify-token", s.handleVerify).Methods("GET", "POST")
	r.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	return r
}

func main() {
	addr := flag.String("addr", ":8001", "listen address")
	flag.Parse()

	level := slog.LevelInfo
	if s := os.Getenv("POLISDESK_LOG_LEVEL"); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			fmt.Fprintf(os.Stderr, "bad POLISDESK_LOG_LEVEL %q: %v\n", s, err)
			os.Exit(1)
		}
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store := newAuthStore(log)
	log.Info("authstub listening", "addr", *addr, "accounts", len(store.accounts))
	if err := http.ListenAndServe(*addr, newRouter(store)); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
