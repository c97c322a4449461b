package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/avetikov/polisdesk/pkg/authgw"
	"github.com/avetikov/polisdesk/pkg/domain"
	"github.com/avetikov/polisdesk/pkg/session"
)

// stubTokens is a scriptable TokenSource.
type stubTokens struct {
	token      string
	err        error
	forceToken string
	forceErr   error
	forced     atomic.Int32
}

func (s *stubTokens) EnsureFreshToken(context.Context) (string, error) {
	return s.token, s.err
}

func (s *stubTokens) ForceRefresh(context.Context) (string, error) {
	s.forced.Add(1)
	if s.forceErr != nil {
		return "", s.forceErr
	}
	s.token = s.forceToken
	return s.forceToken, nil
}

func TestDoAttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-Id")
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"}) //nolint:errcheck
	}))
	defer srv.Close()

	g := New(srv.URL, &stubTokens{token: "tok-1"})
	var out map[string]string
	if err := g.Do(context.Background(), http.MethodGet, "/ping", nil, &out); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", gotAuth)
	}
	if gotReqID == "" {
		t.Error("X-Request-Id header missing")
	}
}

func TestDoAnonymousOmitsBearer(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := New(srv.URL, &stubTokens{err: session.ErrNotAuthenticated})
	if err := g.Do(context.Background(), http.MethodGet, "/public", nil, nil); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if hasAuth {
		t.Errorf("Authorization header sent for anonymous session: %q", gotAuth)
	}
}

func TestDoRefreshesAndRetriesOnceOn401(t *testing.T) {
	var requests atomic.Int32
	var reqIDs [2]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n <= 2 {
			reqIDs[n-1] = r.Header.Get("X-Request-Id")
		}
		if r.Header.Get("Authorization") != "Bearer tok-new" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "token revoked"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"n": 1}) //nolint:errcheck
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "tok-old", forceToken: "tok-new"}
	g := New(srv.URL, tokens)

	var out map[string]int
	if err := g.Do(context.Background(), http.MethodGet, "/clients/", nil, &out); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if n := tokens.forced.Load(); n != 1 {
		t.Errorf("forced refreshes = %d, want 1", n)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("requests = %d, want original + one retry", n)
	}
	if reqIDs[0] == "" || reqIDs[0] != reqIDs[1] {
		t.Errorf("request IDs %q/%q, want the retry to share the correlation ID", reqIDs[0], reqIDs[1])
	}
}

func TestDoSecond401IsAuthorizationError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "tok-old", forceToken: "tok-new"}
	g := New(srv.URL, tokens)

	err := g.Do(context.Background(), http.MethodGet, "/clients/", nil, nil)
	if !errors.Is(err, ErrAuthorization) {
		t.Errorf("error = %v, want ErrAuthorization", err)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("requests = %d, want exactly 2, never an unbounded retry loop", n)
	}
	if n := tokens.forced.Load(); n != 1 {
		t.Errorf("forced refreshes = %d, want 1", n)
	}
}

func TestDoRefreshFailureSurfacesAsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &stubTokens{token: "tok-old", forceErr: authgw.ErrRefreshRejected}
	g := New(srv.URL, tokens)

	err := g.Do(context.Background(), http.MethodGet, "/clients/", nil, nil)
	if !errors.Is(err, ErrAuthorization) {
		t.Errorf("error = %v, want ErrAuthorization", err)
	}
	if !errors.Is(err, authgw.ErrRefreshRejected) {
		t.Errorf("error = %v, want the refresh rejection preserved in the chain", err)
	}
}

func TestDoAnonymous401DoesNotRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &stubTokens{err: session.ErrNotAuthenticated}
	g := New(srv.URL, tokens)

	err := g.Do(context.Background(), http.MethodGet, "/clients/", nil, nil)
	if !errors.Is(err, ErrAuthorization) {
		t.Errorf("error = %v, want ErrAuthorization", err)
	}
	if n := tokens.forced.Load(); n != 0 {
		t.Errorf("forced refreshes = %d, want 0 without a token to refresh", n)
	}
}

func TestDoAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Client not found"}) //nolint:errcheck
	}))
	defer srv.Close()

	g := New(srv.URL, &stubTokens{token: "tok-1"})
	err := g.Do(context.Background(), http.MethodGet, "/clients/99/", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 404 || apiErr.Message != "Client not found" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !IsStatus(err, 404) {
		t.Error("IsStatus(err, 404) = false")
	}
	if IsStatus(err, 500) {
		t.Error("IsStatus(err, 500) = true")
	}
}

func TestListClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clients/" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("limit") != "50" {
			t.Errorf("limit = %q, want 50", r.URL.Query().Get("limit"))
		}
		json.NewEncoder(w).Encode(ClientPage{ //nolint:errcheck
			Clients: []domain.Client{
				{ID: 1, FirstName: "Ivan", LastName: "Petrov", Email: "ivan@example.com"},
				{ID: 2, FirstName: "Anna", LastName: "Sokolova", Email: "anna@example.com"},
			},
			Total: 2,
			Limit: 50,
		})
	}))
	defer srv.Close()

	g := New(srv.URL, &stubTokens{token: "tok-1"})
	page, err := g.ListClients(context.Background(), 0, 50)
	if err != nil {
		t.Fatalf("ListClients() error: %v", err)
	}
	if len(page.Clients) != 2 || page.Total != 2 {
		t.Fatalf("page = %+v, want 2 clients", page)
	}
	if page.Clients[0].FullName() != "Ivan Petrov" {
		t.Errorf("FullName() = %q, want Ivan Petrov", page.Clients[0].FullName())
	}
}

func TestDecideClaim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/claims/7/decision" || r.Method != http.MethodPut {
			http.NotFound(w, r)
			return
		}
		var d ClaimDecision
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			t.Fatal(err)
		}
		amount := 0.0
		if d.ApprovedAmount != nil {
			amount = *d.ApprovedAmount
		}
		json.NewEncoder(w).Encode(domain.Claim{ //nolint:errcheck
			ID: 7, Status: domain.ClaimApproved, ApprovedAmount: &amount,
		})
	}))
	defer srv.Close()

	g := New(srv.URL, &stubTokens{token: "tok-1"})
	amount := 2500.0
	claim, err := g.DecideClaim(context.Background(), 7, ClaimDecision{Decision: "approved", ApprovedAmount: &amount})
	if err != nil {
		t.Fatalf("DecideClaim() error: %v", err)
	}
	if claim.Status != domain.ClaimApproved {
		t.Errorf("Status = %q, want approved", claim.Status)
	}
}

func TestUpdateUserRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/u-42/role" || r.Method != http.MethodPatch {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(domain.UserProfile{ //nolint:errcheck
			ID: "u-42", Username: "agent1", Role: body.Role,
		})
	}))
	defer srv.Close()

	g := New(srv.URL, &stubTokens{token: "tok-1"})
	user, err := g.UpdateUserRole(context.Background(), "u-42", "adjuster")
	if err != nil {
		t.Fatalf("UpdateUserRole() error: %v", err)
	}
	if user.Role != "adjuster" {
		t.Errorf("Role = %q, want adjuster", user.Role)
	}
}
