package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avetikov/polisdesk/pkg/authgw"
	"github.com/avetikov/polisdesk/pkg/domain"
)

// Status is the session state machine position.
type Status int

const (
	// Anonymous: no token, no user.
	Anonymous Status = iota
	// Authenticating: a login call is in flight.
	Authenticating
	// Verifying: hydrated credentials are being checked with the server.
	Verifying
	// Authenticated: token and user present.
	Authenticated
	// Refreshing: a refresh call is in flight; the old token may still work.
	Refreshing
	// Invalid: the session died server-side (rejected refresh); a fresh
	// login is required. Distinct from Anonymous so the UI can say why.
	Invalid
)

func (s Status) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Verifying:
		return "verifying"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrNotAuthenticated is returned by token requests when no session exists.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSuperseded is returned when a logout arrived while the operation
	// was in flight; its result has been discarded.
	ErrSuperseded = errors.New("session superseded by logout")
	// ErrLoginInProgress is returned when Login is called while another
	// login or refresh has not settled yet.
	ErrLoginInProgress = errors.New("login already in progress")
)

// AuthAPI is the remote surface the controller drives. Satisfied by
// *authgw.Gateway; tests substitute stubs.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*authgw.LoginResult, error)
	Register(ctx context.Context, reg authgw.RegisterRequest) (string, error)
	Refresh(ctx context.Context, refreshToken string) (*authgw.RefreshResult, error)
	Verify(ctx context.Context, accessToken string) (*domain.UserProfile, error)
	Logout(ctx context.Context, accessToken string) error
}

// remoteLogoutTimeout bounds the fire-and-forget server-side logout call.
const remoteLogoutTimeout = 10 * time.Second

// refreshCall is the coordination marker for an in-flight refresh: every
// concurrent token request awaits the same one instead of issuing its own
// refresh. At most one exists at a time.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// Controller owns the in-memory session and is the only writer of the
// credential store. All state transitions are serialized through its mutex;
// a generation counter makes logout win over any in-flight login or refresh.
type Controller struct {
	gw    AuthAPI
	store Store
	log   *slog.Logger

	mu       sync.Mutex
	status   Status
	access   string
	refresh  string
	user     *domain.UserProfile
	clock    TokenClock
	verified bool
	gen      uint64
	inflight *refreshCall

	// test seams
	skew time.Duration
	now  func() time.Time
}

// NewController creates a session controller. A nil logger falls back to
// slog.Default().
func NewController(gw AuthAPI, store Store, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		gw:    gw,
		store: store,
		log:   log,
		skew:  DefaultSkew,
		now:   time.Now,
	}
}

// CurrentUser returns a copy of the authenticated user's profile, or nil.
func (c *Controller) CurrentUser() *domain.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// IsAuthenticated reports whether a usable session exists.
func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == Authenticated || c.status == Refreshing
}

// Status returns the current state machine position.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Verified reports whether the current session has been confirmed by the
// server since startup. False means the stored credentials are trusted
// optimistically because the auth service was unreachable.
func (c *Controller) Verified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified
}

// Hydrate loads stored credentials and verifies them with the server. Called
// exactly once, at startup. An invalid token clears the store silently; an
// unreachable server trusts the stored credentials so the app stays usable
// offline, leaving the session marked unverified.
func (c *Controller) Hydrate(ctx context.Context) error {
	c.mu.Lock()
	creds := c.store.Get()
	if creds == nil {
		c.status = Anonymous
		c.mu.Unlock()
		return nil
	}
	c.status = Verifying
	gen := c.gen
	c.mu.Unlock()

	user, err := c.gw.Verify(ctx, creds.AccessToken)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return nil
	}
	if err != nil {
		if errors.Is(err, authgw.ErrTokenInvalid) {
			c.resetLocked(Anonymous)
			return nil
		}
		// Server unreachable (or otherwise unable to answer): trust the
		// stored credentials, flag the session unverified. Expiry is
		// unknown after a restart, so the zero clock forces a refresh on
		// first use.
		c.access = creds.AccessToken
		c.refresh = creds.RefreshToken
		u := creds.User
		c.user = &u
		c.clock = TokenClock{}
		c.status = Authenticated
		c.verified = false
		return nil
	}

	c.access = creds.AccessToken
	c.refresh = creds.RefreshToken
	c.user = user
	c.clock = TokenClock{}
	c.status = Authenticated
	c.verified = true
	// Server profile may be fresher than the cached one.
	c.persistLocked()
	return nil
}

// Login drives Anonymous/Invalid -> Authenticating -> Authenticated. A typed
// error distinguishes wrong credentials from an unreachable server; either
// way the state returns to Anonymous and the store is untouched.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	c.mu.Lock()
	switch c.status {
	case Anonymous, Invalid:
		// proceed
	case Authenticating, Refreshing, Verifying:
		c.mu.Unlock()
		return fmt.Errorf("session.Login: %w", ErrLoginInProgress)
	default:
		c.mu.Unlock()
		return fmt.Errorf("session.Login: already authenticated")
	}
	c.status = Authenticating
	gen := c.gen
	c.mu.Unlock()

	res, err := c.gw.Login(ctx, username, password)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return fmt.Errorf("session.Login: %w", ErrSuperseded)
	}
	if err != nil {
		c.status = Anonymous
		return fmt.Errorf("session.Login: %w", err)
	}

	c.access = res.AccessToken
	c.refresh = res.RefreshToken
	u := res.User
	c.user = &u
	c.clock = NewTokenClock(c.now(), res.ExpiresIn)
	c.status = Authenticated
	c.verified = true
	c.persistLocked()
	return nil
}

// Register creates a new account. Pure pass-through: registration does not
// change session state.
func (c *Controller) Register(ctx context.Context, reg authgw.RegisterRequest) (string, error) {
	return c.gw.Register(ctx, reg)
}

// Logout clears the store and resets to Anonymous immediately; the remote
// logout is fire-and-forget. A logout always wins over in-flight login or
// refresh calls: bumping the generation makes their eventual resolution a
// no-op, so a stale success can never resurrect the session.
func (c *Controller) Logout() {
	c.mu.Lock()
	c.gen++
	// Detach any in-flight refresh so a session started after this logout
	// never awaits the superseded call.
	c.inflight = nil
	token := c.access
	c.resetLocked(Anonymous)
	c.mu.Unlock()

	if token == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteLogoutTimeout)
		defer cancel()
		if err := c.gw.Logout(ctx, token); err != nil {
			c.log.Warn("remote logout failed", "error", err)
		}
	}()
}

// EnsureFreshToken returns an access token that is not inside the expiry
// skew window, refreshing first if needed. Concurrent callers during a
// refresh all await the same in-flight call and share its outcome.
func (c *Controller) EnsureFreshToken(ctx context.Context) (string, error) {
	return c.freshToken(ctx, false)
}

// ForceRefresh refreshes regardless of the clock, used when the server
// rejected a token the clock still considered fresh.
func (c *Controller) ForceRefresh(ctx context.Context) (string, error) {
	return c.freshToken(ctx, true)
}

func (c *Controller) freshToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	if c.status != Authenticated && c.status != Refreshing {
		c.mu.Unlock()
		return "", ErrNotAuthenticated
	}
	if !force && c.status == Authenticated && !c.clock.ExpiringSoon(c.now(), c.skew) {
		token := c.access
		c.mu.Unlock()
		return token, nil
	}
	if c.inflight == nil {
		call := &refreshCall{done: make(chan struct{})}
		c.inflight = call
		c.status = Refreshing
		go c.runRefresh(call, c.refresh, c.gen)
	}
	call := c.inflight
	c.mu.Unlock()

	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// runRefresh performs the single coordinated refresh call and settles every
// waiter with the same outcome.
func (c *Controller) runRefresh(call *refreshCall, refreshToken string, gen uint64) {
	defer close(call.done)

	ctx, cancel := context.WithTimeout(context.Background(), remoteLogoutTimeout*3)
	defer cancel()
	res, err := c.gw.Refresh(ctx, refreshToken)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// Logout won while the refresh was in flight; drop the result.
		if c.inflight == call {
			c.inflight = nil
		}
		call.err = ErrSuperseded
		return
	}
	c.inflight = nil

	if err != nil {
		if errors.Is(err, authgw.ErrRefreshRejected) {
			// Terminal. Every waiter sees the same rejection; the UI is
			// driven back to the login screen by the Invalid state.
			c.resetLocked(Invalid)
			call.err = err
			return
		}
		// Transient fault: keep the session, mark it degraded.
		c.status = Authenticated
		c.verified = false
		call.err = err
		return
	}

	c.access = res.AccessToken
	if res.RefreshToken != "" {
		// Services that rotate refresh tokens send the replacement here.
		c.refresh = res.RefreshToken
	}
	c.clock = NewTokenClock(c.now(), res.ExpiresIn)
	c.status = Authenticated
	c.verified = true
	c.persistLocked()
	call.token = res.AccessToken
}

// persistLocked writes the current session to the store. Write failures are
// logged and swallowed: losing durability must not break a live session.
func (c *Controller) persistLocked() {
	if c.user == nil {
		return
	}
	err := c.store.Set(StoredCredentials{
		AccessToken:  c.access,
		RefreshToken: c.refresh,
		User:         *c.user,
	})
	if err != nil {
		c.log.Warn("persist credentials failed", "error", err)
	}
}

// resetLocked wipes the in-memory session and the store.
func (c *Controller) resetLocked(to Status) {
	c.access = ""
	c.refresh = ""
	c.user = nil
	c.clock = TokenClock{}
	c.verified = false
	c.status = to
	if err := c.store.Clear(); err != nil {
		c.log.Warn("clear credentials failed", "error", err)
	}
}
