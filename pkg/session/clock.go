package session

import "time"

// DefaultSkew is the margin before actual expiry at which a proactive
// refresh is triggered, so domain calls don't have to eat a 401 first.
const DefaultSkew = 30 * time.Second

// TokenClock tracks the lifetime of an access token from the server-declared
// expires_in. The token itself stays opaque; nothing is decoded from it.
// The zero TokenClock reports expired, which forces a refresh when the
// actual expiry is unknown (e.g. right after hydrating from disk).
type TokenClock struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewTokenClock records a token issued at the given instant with the given
// declared lifetime in seconds.
func NewTokenClock(issuedAt time.Time, expiresIn int) TokenClock {
	return TokenClock{
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(time.Duration(expiresIn) * time.Second),
	}
}

// Expired reports whether the token's declared lifetime has passed.
func (c TokenClock) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ExpiringSoon reports whether now is inside the skew window before expiry
// (or past it). A non-positive skew means no proactive window.
func (c TokenClock) ExpiringSoon(now time.Time, skew time.Duration) bool {
	if skew < 0 {
		skew = 0
	}
	return !now.Add(skew).Before(c.ExpiresAt)
}
