package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the claim set carried by every token this package issues.
// Access and refresh tokens carry uid/email/provider; verification and
// reset tokens carry token_id/email. The purpose claim mirrors the signing
// secret's purpose for diagnostics; verification never relies on it alone.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID          string `json:"uid,omitempty"`
	Email        string `json:"email,omitempty"`
	Provider     string `json:"provider,omitempty"`
	TokenID      string `json:"token_id,omitempty"`
	TokenPurpose string `json:"purpose,omitempty"`
}

// UserID returns the user ID, falling back to the registered subject.
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// HandoffClaims wraps an already issued token pair so it can transit a
// public redirect as a single opaque, tamper-evident value.
type HandoffClaims struct {
	jwt.RegisteredClaims
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenPurpose string `json:"purpose,omitempty"`
}
