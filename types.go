package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetEmail() string
	GetProvider() string
	GetIssuer() string
	GetIssuedAt() *time.Time
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	LoginWithProvider(ctx context.Context, profile *SocialProfile) (*ProviderLoginResult, error)
	SessionFromToken(token string) (Session, error)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Email() string
	Provider() string
}

// Config holds auth options
type Config interface {
	GetSigningSecret(purpose Purpose) string
	GetTokenTTL(purpose Purpose) time.Duration
	GetIssuer() string
	GetAudience() []string
	GetMaxLoginAttempts() int
	GetAppHost() string
	GetCallbackURL() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Mailer is the outbound mail collaborator. Delivery is best effort: a
// failed send surfaces ErrEmailDeliveryFailed but never rolls back state.
type Mailer interface {
	Send(ctx context.Context, template string, vars map[string]string) error
}

// AttemptTracker counts consecutive failed credential checks per normalized
// email. It carries no lockout policy; that lives with the orchestrator.
type AttemptTracker interface {
	RecordFailure(ctx context.Context, email string) (int, error)
	RecordSuccess(ctx context.Context, email string) error
}

// TokenPair is an access/refresh token set issued on successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is the success payload of a password login.
type LoginResult struct {
	Tokens TokenPair `json:"tokens"`
	User   *UserView `json:"user"`
}

// ProviderLoginResult is the success payload of a third-party login. The
// token pair is additionally re-encoded under the third-party purpose so it
// can transit a public redirect opaquely.
type ProviderLoginResult struct {
	Tokens      TokenPair `json:"tokens"`
	User        *UserView `json:"user"`
	RedirectURL string    `json:"redirect_url"`
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
