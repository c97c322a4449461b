package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avetikov/polisdesk/pkg/session"
)

// ErrAuthorization is returned when a call failed with 401 even after the
// one coordinated refresh-and-retry. By the time a caller sees it, the
// session controller has already reached its terminal state.
var ErrAuthorization = errors.New("not authorized")

// APIError represents a non-2xx, non-authorization response from the
// back-office API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an APIError with
// the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}

// TokenSource hands out access tokens and coordinates refreshes. Satisfied
// by *session.Controller.
type TokenSource interface {
	EnsureFreshToken(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// Gateway is the single integration point for domain API calls: it attaches
// the bearer header, detects authorization failures, and performs at most
// one coordinated refresh-then-retry per original call.
type Gateway struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// New creates a request gateway for the back-office API.
func New(baseURL string, tokens TokenSource) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Do performs an authenticated call against the API. The bearer header is
// omitted entirely for an anonymous session. A 401 on an authenticated call
// triggers one forced refresh and one retry; a second 401 surfaces as
// ErrAuthorization, never a retry loop.
func (g *Gateway) Do(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		payload = data
	}

	token, err := g.tokens.EnsureFreshToken(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNotAuthenticated) {
			return fmt.Errorf("ensure token: %w", err)
		}
		token = ""
	}

	// One correlation ID for the call, shared by the retry.
	requestID := uuid.NewString()

	resp, err := g.send(ctx, method, path, payload, token, requestID)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		drain(resp)
		// Server-side revocation can race ahead of local expiry tracking.
		token, err = g.tokens.ForceRefresh(ctx)
		if err != nil {
			return fmt.Errorf("%w: refresh failed: %w", ErrAuthorization, err)
		}
		resp, err = g.send(ctx, method, path, payload, token, requestID)
		if err != nil {
			return err
		}
	}

	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthorization
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: readDetail(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (g *Gateway) send(ctx context.Context, method, path string, payload []byte, token, requestID string) (*http.Response, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-Id", requestID)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func (g *Gateway) get(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

func (g *Gateway) post(ctx context.Context, path string, body any, out any) error {
	return g.Do(ctx, http.MethodPost, path, body, out)
}

func (g *Gateway) put(ctx context.Context, path string, body any, out any) error {
	return g.Do(ctx, http.MethodPut, path, body, out)
}

func (g *Gateway) patch(ctx context.Context, path string, body any, out any) error {
	return g.Do(ctx, http.MethodPatch, path, body, out)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16)) //nolint:errcheck // connection reuse
	resp.Body.Close()                                     //nolint:errcheck
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
