package auth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther composes the hasher, codec, tracker, and repositories into the
// login, refresh, and third-party workflows. It is the only component with
// business-rule authority; the collaborators below it stay policy free.
type Auther struct {
	repo             RepositoryManager
	codec            *TokenCodec
	tracker          AttemptTracker
	hasher           PasswordAuthenticator
	mailer           Mailer
	logger           Logger
	maxLoginAttempts int
	appHost          string
	callbackURL      string
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther wired with in-process defaults:
// memory attempt tracker, bcrypt hasher, logging mailer.
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	return &Auther{
		repo:             repo,
		codec:            NewTokenCodec(cfg),
		tracker:          NewMemoryAttemptTracker(),
		hasher:           bcryptHasher{},
		mailer:           NewLogMailer(defLogger{}),
		logger:           defLogger{},
		maxLoginAttempts: cfg.GetMaxLoginAttempts(),
		appHost:          cfg.GetAppHost(),
		callbackURL:      cfg.GetCallbackURL(),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
		s.codec.WithLogger(logger)
	}
	return s
}

// WithAttemptTracker swaps the failed-login counter, e.g. for the Redis
// tracker in multi-instance deployments.
func (s *Auther) WithAttemptTracker(tracker AttemptTracker) *Auther {
	if tracker != nil {
		s.tracker = tracker
	}
	return s
}

func (s *Auther) WithMailer(mailer Mailer) *Auther {
	if mailer != nil {
		s.mailer = mailer
	}
	return s
}

func (s *Auther) WithPasswordAuthenticator(hasher PasswordAuthenticator) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

func (s *Auther) WithTokenCodec(codec *TokenCodec) *Auther {
	if codec != nil {
		s.codec = codec
	}
	return s
}

// Codec returns the TokenCodec instance used by this Authenticator.
func (s *Auther) Codec() *TokenCodec {
	return s.codec
}

// Login verifies local credentials and issues an access/refresh pair. A
// failed password check feeds the attempt tracker; crossing the configured
// threshold deactivates the account and returns ErrAccountLocked, which
// takes precedence over ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("login user not found", "email", email)
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if !user.Active {
		return nil, ErrUserInactive
	}

	if !user.IsLocal() {
		return nil, ErrProviderMismatch
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, s.handleFailedLogin(ctx, user)
	}

	if err := s.tracker.RecordSuccess(ctx, email); err != nil {
		s.logger.Warn("failed to clear login attempt counter: %v", err)
	}

	pair, err := s.issuePair(ClaimSpec{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Provider: user.Provider,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Tokens: *pair,
		User:   NewUserView(user),
	}, nil
}

// Refresh verifies a refresh-purpose token and re-issues a rotated pair
// carrying the same uid/email/provider claims. Any verification failure
// surfaces as ErrUnauthorized.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(PurposeRefresh, refreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected: %v", err)
		return nil, ErrUnauthorized
	}

	return s.issuePair(ClaimSpec{
		UserID:   claims.UserID(),
		Email:    claims.Email,
		Provider: claims.Provider,
	})
}

// LoginWithProvider exchanges a verified external profile for a local
// session. Unknown emails get a new active account with a throwaway
// password hash. The issued pair is re-encoded under the third-party
// purpose before being embedded in the redirect target, so the payload is
// opaque and tamper evident in transit.
func (s *Auther) LoginWithProvider(ctx context.Context, profile *SocialProfile) (*ProviderLoginResult, error) {
	if profile == nil || profile.PrimaryEmail() == "" || profile.Provider == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.repo.Users().GetByEmail(ctx, profile.PrimaryEmail())
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during provider login")
		}

		user, err = s.repo.Users().Create(ctx, profile.toUser())
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create user from provider profile")
		}
	}

	pair, err := s.issuePair(ClaimSpec{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Provider: user.Provider,
	})
	if err != nil {
		return nil, err
	}

	handoff, err := s.codec.IssueHandoff(*pair)
	if err != nil {
		return nil, err
	}

	return &ProviderLoginResult{
		Tokens:      *pair,
		User:        NewUserView(user),
		RedirectURL: fmt.Sprintf("%s?token=%s", s.redirectTarget(), handoff),
	}, nil
}

// SessionFromToken verifies an access token and returns its session view.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.codec.Verify(PurposeAccess, raw)
	if err != nil {
		return nil, err
	}

	return sessionFromTokenClaims(claims), nil
}

func (s *Auther) issuePair(spec ClaimSpec) (*TokenPair, error) {
	access, err := s.codec.Issue(PurposeAccess, spec)
	if err != nil {
		return nil, err
	}

	refresh, err := s.codec.Issue(PurposeRefresh, spec)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Auther) handleFailedLogin(ctx context.Context, user *User) error {
	count, err := s.tracker.RecordFailure(ctx, user.Email)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to record login attempt")
	}

	if !HasReachedLimit(count, s.maxLoginAttempts) {
		return ErrInvalidCredentials
	}

	if err := s.repo.Users().SetActive(ctx, user.ID, false); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to deactivate user after lockout")
	}

	if err := s.tracker.RecordSuccess(ctx, user.Email); err != nil {
		s.logger.Warn("failed to clear login attempt counter after lockout: %v", err)
	}

	s.logger.Warn("account locked after repeated failed logins", "email", user.Email)

	return ErrAccountLocked
}

func (s *Auther) redirectTarget() string {
	if s.callbackURL != "" {
		return s.callbackURL
	}
	return s.appHost + "/callback"
}
