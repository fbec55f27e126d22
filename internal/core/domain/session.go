package domain

import "time"

// SessionClaims is the identity carried by a signed session token.
type SessionClaims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is a freshly minted token together with its claims.
type Session struct {
	Token  string
	Claims SessionClaims
	// Persistent is true for "remember me" sessions; the cookie then gets an
	// explicit expiry instead of living for the browser session only.
	Persistent bool
}
