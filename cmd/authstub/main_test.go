package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := newAuthStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(newRouter(store))
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, username, password string) (tokenResponse, int) {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := http.PostForm(srv.URL+"/auth/login", form)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	var tok tokenResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
			t.Fatalf("decode login response: %v", err)
		}
	}
	return tok, resp.StatusCode
}

func TestLoginSeededAccount(t *testing.T) {
	srv := newTestServer(t)

	tok, code := login(t, srv, "agent1", "polisdesk")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		t.Error("expected non-empty token pair")
	}
	if tok.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", tok.TokenType)
	}
	if tok.ExpiresIn != tokenTTL {
		t.Errorf("expires_in = %d, want %d", tok.ExpiresIn, tokenTTL)
	}
	if tok.User.Username != "agent1" || tok.User.Role != "agent" {
		t.Errorf("user = %s/%s, want agent1/agent", tok.User.Username, tok.User.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)

	_, code := login(t, srv, "agent1", "nope")
	if code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
}

func TestVerifyToken(t *testing.T) {
	srv := newTestServer(t)
	tok, _ := login(t, srv, "admin", "polisdesk")

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/verify-token", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Valid bool `json:"valid"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Valid || body.User.Username != "admin" {
		t.Errorf("got valid=%v user=%q", body.Valid, body.User.Username)
	}
}

func TestVerifyUnknownToken(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/verify-token", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	srv := newTestServer(t)
	tok, _ := login(t, srv, "agent1", "polisdesk")

	body, _ := json.Marshal(map[string]string{"refresh_token": tok.RefreshToken})
	resp, err := http.Post(srv.URL+"/auth/refresh", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var next tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&next); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if next.AccessToken == tok.AccessToken {
		t.Error("access token was not rotated")
	}

	// The spent refresh token must be rejected on reuse.
	resp2, err := http.Post(srv.URL+"/auth/refresh", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: status = %d, want 401", resp2.StatusCode)
	}
}

func TestLogoutRevokesEverything(t *testing.T) {
	srv := newTestServer(t)
	tok, _ := login(t, srv, "manager", "polisdesk")

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	// Access token is dead.
	req2, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/verify-token", nil)
	req2.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("verify after logout: status = %d, want 401", resp2.StatusCode)
	}

	// Refresh token is dead too.
	body, _ := json.Marshal(map[string]string{"refresh_token": tok.RefreshToken})
	resp3, err := http.Post(srv.URL+"/auth/refresh", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status = %d, want 401", resp3.StatusCode)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	srv := newTestServer(t)

	payload := `{"username":"newbie","email":"newbie@polisdesk.local","password":"longenough","full_name":"New Bee","role":"agent"}`
	resp, err := http.Post(srv.URL+"/auth/register", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	if _, code := login(t, srv, "newbie", "longenough"); code != http.StatusOK {
		t.Errorf("login as new account: status = %d, want 200", code)
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/auth/register", "application/json",
		strings.NewReader(`{"username":"x","email":"not-an-email","password":"short"}`))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Fields["email"] == "" || body.Fields["password"] == "" {
		t.Errorf("fields = %v, want email and password problems", body.Fields)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/auth/register", "application/json",
		strings.NewReader(`{"username":"agent1","email":"dup@polisdesk.local","password":"longenough"}`))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}
