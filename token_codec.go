package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Purpose tags a token with the flow it authorizes. Each purpose signs with
// its own secret so a leaked secret for one purpose cannot forge tokens for
// another: a reset token presented to an access-token endpoint fails the
// signature check outright.
type Purpose string

const (
	PurposeAccess            Purpose = "access"
	PurposeRefresh           Purpose = "refresh"
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeThirdParty        Purpose = "third_party"
)

// Purposes returns every token purpose in declaration order.
func Purposes() []Purpose {
	return []Purpose{
		PurposeAccess,
		PurposeRefresh,
		PurposeEmailVerification,
		PurposePasswordReset,
		PurposeThirdParty,
	}
}

// IsValid checks the purpose is one of the declared tags.
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeAccess, PurposeRefresh, PurposeEmailVerification, PurposePasswordReset, PurposeThirdParty:
		return true
	default:
		return false
	}
}

// ClaimSpec is the caller-facing claim payload for Issue. Zero fields are
// omitted from the signed token.
type ClaimSpec struct {
	UserID   string
	Email    string
	Provider string
	TokenID  string
}

// TokenCodec issues and verifies purpose-scoped HS256 tokens. Secrets are
// loaded once at construction and never mutated.
type TokenCodec struct {
	secrets  map[Purpose][]byte
	ttls     map[Purpose]time.Duration
	issuer   string
	audience jwt.ClaimStrings
	logger   Logger
	now      func() time.Time
}

// NewTokenCodec creates a codec from the configured per-purpose secrets and
// lifetimes.
func NewTokenCodec(cfg Config) *TokenCodec {
	secrets := make(map[Purpose][]byte, len(Purposes()))
	ttls := make(map[Purpose]time.Duration, len(Purposes()))

	for _, purpose := range Purposes() {
		if secret := cfg.GetSigningSecret(purpose); secret != "" {
			secrets[purpose] = []byte(secret)
		}
		ttls[purpose] = cfg.GetTokenTTL(purpose)
	}

	var aud jwt.ClaimStrings
	if audience := cfg.GetAudience(); len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	return &TokenCodec{
		secrets:  secrets,
		ttls:     ttls,
		issuer:   cfg.GetIssuer(),
		audience: aud,
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (c *TokenCodec) WithLogger(logger Logger) *TokenCodec {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithClock injects a custom clock (useful for tests).
func (c *TokenCodec) WithClock(clock func() time.Time) *TokenCodec {
	if clock != nil {
		c.now = clock
	}
	return c
}

// TTL returns the configured lifetime for a purpose.
func (c *TokenCodec) TTL(purpose Purpose) time.Duration {
	return c.ttls[purpose]
}

// Issue signs the claims under the purpose's secret with the purpose's
// configured lifetime. It is side-effect free.
func (c *TokenCodec) Issue(purpose Purpose, spec ClaimSpec) (string, error) {
	return c.IssueWithTTL(purpose, spec, c.ttls[purpose])
}

// IssueWithTTL signs the claims with an explicit lifetime override.
func (c *TokenCodec) IssueWithTTL(purpose Purpose, spec ClaimSpec, ttl time.Duration) (string, error) {
	secret, err := c.secretFor(purpose)
	if err != nil {
		return "", err
	}

	now := c.now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   spec.UserID,
			Audience:  c.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UID:          spec.UserID,
		Email:        spec.Email,
		Provider:     spec.Provider,
		TokenID:      spec.TokenID,
		TokenPurpose: string(purpose),
	}

	return c.sign(secret, claims)
}

// Verify parses a token under the purpose's secret: signature first, expiry
// second. A token signed for a different purpose fails ErrTokenInvalid
// regardless of its expiry; a well-signed token past its expiry fails
// ErrTokenExpired.
func (c *TokenCodec) Verify(purpose Purpose, tokenString string) (*TokenClaims, error) {
	secret, err := c.secretFor(purpose)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, c.keyFunc(secret), c.parserOptions()...)
	if err != nil {
		return nil, c.classifyParseError(err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		c.logger.Error("token codec could not decode claims")
		return nil, ErrTokenInvalid
	}

	if claims.TokenPurpose != "" && claims.TokenPurpose != string(purpose) {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// IssueHandoff re-encodes an issued token pair under the third-party
// purpose for transit through a public redirect.
func (c *TokenCodec) IssueHandoff(pair TokenPair) (string, error) {
	secret, err := c.secretFor(PurposeThirdParty)
	if err != nil {
		return "", err
	}

	now := c.now()
	claims := &HandoffClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  c.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttls[PurposeThirdParty])),
			ID:        uuid.NewString(),
		},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenPurpose: string(PurposeThirdParty),
	}

	return c.sign(secret, claims)
}

// VerifyHandoff unwraps a third-party handoff payload back into the token
// pair it carries.
func (c *TokenCodec) VerifyHandoff(tokenString string) (*TokenPair, error) {
	secret, err := c.secretFor(PurposeThirdParty)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &HandoffClaims{}, c.keyFunc(secret), c.parserOptions()...)
	if err != nil {
		return nil, c.classifyParseError(err)
	}

	claims, ok := token.Claims.(*HandoffClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return &TokenPair{
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
	}, nil
}

func (c *TokenCodec) sign(secret []byte, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

func (c *TokenCodec) secretFor(purpose Purpose) ([]byte, error) {
	if !purpose.IsValid() {
		return nil, errors.New("unknown token purpose", errors.CategoryBadInput).
			WithMetadata(map[string]any{"purpose": string(purpose)})
	}

	secret, ok := c.secrets[purpose]
	if !ok || len(secret) == 0 {
		return nil, errors.New("no signing secret configured for purpose", errors.CategoryInternal).
			WithMetadata(map[string]any{"purpose": string(purpose)})
	}

	return secret, nil
}

func (c *TokenCodec) keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			c.logger.Error("token codec encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}
}

func (c *TokenCodec) parserOptions() []jwt.ParserOption {
	options := make([]jwt.ParserOption, 0, 2)
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}
	if len(c.audience) > 0 {
		options = append(options, jwt.WithAudience(c.audience...))
	}
	return options
}

// classifyParseError collapses parse failures into the two caller-visible
// kinds. Signature failure wins over expiry so a token signed with another
// purpose's secret never reads as merely expired.
func (c *TokenCodec) classifyParseError(err error) error {
	if stderrors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return ErrTokenInvalid
	}
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}
