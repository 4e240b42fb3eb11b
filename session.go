package auth

import (
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the session view derived from a verified access token.
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Email          string     `json:"email,omitempty"`
	Provider       string     `json:"provider,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

func (s *SessionObject) GetProvider() string {
	return s.Provider
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func sessionFromTokenClaims(claims *TokenClaims) *SessionObject {
	session := &SessionObject{
		UserID:   claims.UserID(),
		Email:    claims.Email,
		Provider: claims.Provider,
		Issuer:   claims.RegisteredClaims.Issuer,
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		issuedAt := claims.RegisteredClaims.IssuedAt.Time
		session.IssuedAt = &issuedAt
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt := claims.RegisteredClaims.ExpiresAt.Time
		session.ExpirationDate = &expiresAt
	}

	return session
}
