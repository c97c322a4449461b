package authgw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avetikov/polisdesk/pkg/domain"
)

// Gateway performs the five remote operations against the authentication
// service. Every failure is one of the typed errors in errors.go; callers
// never see a raw status code.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

// New creates an authentication gateway for the given service base URL.
func New(baseURL string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LoginResult is the successful response of the login endpoint.
type LoginResult struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type"`
	ExpiresIn    int                `json:"expires_in"`
	User         domain.UserProfile `json:"user"`
}

// Login exchanges a username/password pair for a token set. The endpoint is
// form-encoded, matching the auth service's login form contract.
func (g *Gateway) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("authgw.Login: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authgw.Login: %w: %w", ErrServerUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("authgw.Login: %w", ErrInvalidCredentials)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("authgw.Login: %w: %s", ErrServerUnavailable, readDetail(resp.Body))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("authgw.Login: HTTP %d: %s", resp.StatusCode, readDetail(resp.Body))
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("authgw.Login: decode response: %w", err)
	}
	return &result, nil
}

// RegisterRequest is the JSON payload for creating a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Register creates a new account and returns the new user's ID.
// Duplicate username/email maps to ErrConflict; field-level problems map to
// a *ValidationError.
func (g *Gateway) Register(ctx context.Context, reg RegisterRequest) (string, error) {
	data, err := json.Marshal(reg)
	if err != nil {
		return "", fmt.Errorf("authgw.Register: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/register",
		strings.NewReader(string(data)))
	if err != nil {
		return "", fmt.Errorf("authgw.Register: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("authgw.Register: %w: %w", ErrServerUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	switch {
	case resp.StatusCode == http.StatusConflict:
		return "", fmt.Errorf("authgw.Register: %w", ErrConflict)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var body struct {
			Fields map[string]string `json:"fields"`
		}
		if decErr := json.NewDecoder(resp.Body).Decode(&body); decErr != nil || len(body.Fields) == 0 {
			return "", fmt.Errorf("authgw.Register: %w", &ValidationError{})
		}
		return "", fmt.Errorf("authgw.Register: %w", &ValidationError{Fields: body.Fields})
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("authgw.Register: %w: %s", ErrServerUnavailable, readDetail(resp.Body))
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("authgw.Register: HTTP %d: %s", resp.StatusCode, readDetail(resp.Body))
	}

	var result struct {
		User domain.UserProfile `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("authgw.Register: decode response: %w", err)
	}
	return result.User.ID, nil
}

// RefreshResult is the successful response of the refresh endpoint. The
// refresh token is present only when the service rotates them.
type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Refresh exchanges a refresh token for a new access token. A 401 means the
// refresh token itself is no longer honored (ErrRefreshRejected); there is
// no point retrying.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	data, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("authgw.Refresh: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/refresh",
		strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("authgw.Refresh: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authgw.Refresh: %w: %w", ErrServerUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("authgw.Refresh: %w", ErrRefreshRejected)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("authgw.Refresh: %w: %s", ErrServerUnavailable, readDetail(resp.Body))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("authgw.Refresh: HTTP %d: %s", resp.StatusCode, readDetail(resp.Body))
	}

	var result RefreshResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("authgw.Refresh: decode response: %w", err)
	}
	return &result, nil
}

// Verify checks an access token with the auth service and returns the
// profile it belongs to. A 401 or an explicit valid=false maps to
// ErrTokenInvalid.
func (g *Gateway) Verify(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/verify-token", nil)
	if err != nil {
		return nil, fmt.Errorf("authgw.Verify: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authgw.Verify: %w: %w", ErrServerUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("authgw.Verify: %w", ErrTokenInvalid)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("authgw.Verify: %w: %s", ErrServerUnavailable, readDetail(resp.Body))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("authgw.Verify: HTTP %d: %s", resp.StatusCode, readDetail(resp.Body))
	}

	var result struct {
		Valid bool               `json:"valid"`
		User  domain.UserProfile `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("authgw.Verify: decode response: %w", err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("authgw.Verify: %w", ErrTokenInvalid)
	}
	return &result.User, nil
}

// Logout invalidates the access token server-side. Best-effort by contract:
// the caller logs failures and clears local state regardless.
func (g *Gateway) Logout(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("authgw.Logout: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("authgw.Logout: %w: %w", ErrServerUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return fmt.Errorf("authgw.Logout: HTTP %d: %s", resp.StatusCode, readDetail(resp.Body))
	}
	return nil
}

// readDetail extracts the {"detail": ...} message from an error body,
// falling back to the raw body.
func readDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20)) // 1 MB max error body
	if err != nil {
		return fmt.Sprintf("failed to read body: %v", err)
	}
	var apiErr struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return strings.TrimSpace(string(body))
}
