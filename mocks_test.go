package auth_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// testConfig implements auth.Config with per purpose secrets
type testConfig struct {
	secrets          map[auth.Purpose]string
	ttls             map[auth.Purpose]time.Duration
	issuer           string
	audience         []string
	maxLoginAttempts int
	appHost          string
	callbackURL      string
}

func newTestConfig() *testConfig {
	return &testConfig{
		secrets: map[auth.Purpose]string{
			auth.PurposeAccess:            "test-access-secret",
			auth.PurposeRefresh:           "test-refresh-secret",
			auth.PurposeEmailVerification: "test-verification-secret",
			auth.PurposePasswordReset:     "test-reset-secret",
			auth.PurposeThirdParty:        "test-handoff-secret",
		},
		ttls: map[auth.Purpose]time.Duration{
			auth.PurposeAccess:            10 * time.Minute,
			auth.PurposeRefresh:           168 * time.Hour,
			auth.PurposeEmailVerification: 24 * time.Hour,
			auth.PurposePasswordReset:     time.Hour,
			auth.PurposeThirdParty:        5 * time.Minute,
		},
		issuer:           "test-issuer",
		audience:         []string{"test-audience"},
		maxLoginAttempts: 3,
		appHost:          "http://front.example.com",
	}
}

func (c *testConfig) GetSigningSecret(purpose auth.Purpose) string {
	return c.secrets[purpose]
}

func (c *testConfig) GetTokenTTL(purpose auth.Purpose) time.Duration {
	return c.ttls[purpose]
}

func (c *testConfig) GetIssuer() string        { return c.issuer }
func (c *testConfig) GetAudience() []string    { return c.audience }
func (c *testConfig) GetMaxLoginAttempts() int { return c.maxLoginAttempts }
func (c *testConfig) GetAppHost() string       { return c.appHost }
func (c *testConfig) GetCallbackURL() string   { return c.callbackURL }

// MockUsers implements auth.Users for the methods the workflows touch. The
// embedded interface covers the rest of the repository surface.
type MockUsers struct {
	mock.Mock
	auth.Users
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, email)
	var user *auth.User
	if v := args.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, tx, email)
	var user *auth.User
	if v := args.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string, excludeID ...uuid.UUID) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	args := m.Called(ctx, record)
	var user *auth.User
	if v := args.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	args := m.Called(ctx, tx, record)
	var user *auth.User
	if v := args.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockUsers) SetActiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, active bool) error {
	args := m.Called(ctx, tx, id, active)
	return args.Error(0)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockVerificationTokens implements auth.VerificationTokens
type MockVerificationTokens struct {
	mock.Mock
	auth.VerificationTokens
}

func (m *MockVerificationTokens) Create(ctx context.Context, record *auth.VerificationToken, criteria ...repository.InsertCriteria) (*auth.VerificationToken, error) {
	args := m.Called(ctx, record)
	var rec *auth.VerificationToken
	if v := args.Get(0); v != nil {
		rec = v.(*auth.VerificationToken)
	}
	return rec, args.Error(1)
}

func (m *MockVerificationTokens) CreateTx(ctx context.Context, tx bun.IDB, record *auth.VerificationToken, criteria ...repository.InsertCriteria) (*auth.VerificationToken, error) {
	args := m.Called(ctx, tx, record)
	var rec *auth.VerificationToken
	if v := args.Get(0); v != nil {
		rec = v.(*auth.VerificationToken)
	}
	return rec, args.Error(1)
}

func (m *MockVerificationTokens) GetByTokenID(ctx context.Context, tokenID uuid.UUID) (*auth.VerificationToken, error) {
	args := m.Called(ctx, tokenID)
	var rec *auth.VerificationToken
	if v := args.Get(0); v != nil {
		rec = v.(*auth.VerificationToken)
	}
	return rec, args.Error(1)
}

func (m *MockVerificationTokens) GetByTokenIDTx(ctx context.Context, tx bun.IDB, tokenID uuid.UUID) (*auth.VerificationToken, error) {
	args := m.Called(ctx, tx, tokenID)
	var rec *auth.VerificationToken
	if v := args.Get(0); v != nil {
		rec = v.(*auth.VerificationToken)
	}
	return rec, args.Error(1)
}

func (m *MockVerificationTokens) MarkUsed(ctx context.Context, tokenID uuid.UUID) (*auth.VerificationToken, error) {
	args := m.Called(ctx, tokenID)
	var rec *auth.VerificationToken
	if v := args.Get(0); v != nil {
		rec = v.(*auth.VerificationToken)
	}
	return rec, args.Error(1)
}

func (m *MockVerificationTokens) MarkUsedTx(ctx context.Context, tx bun.IDB, tokenID uuid.UUID) (*auth.VerificationToken, error) {
	args := m.Called(ctx, tx, tokenID)
	var rec *auth.VerificationToken
	if v := args.Get(0); v != nil {
		rec = v.(*auth.VerificationToken)
	}
	return rec, args.Error(1)
}

// MockRepositoryManager implements auth.RepositoryManager. RunInTx executes
// the transaction body with a zero-value bun.Tx after the expectation's own
// error check, so the body's errors propagate the way the real manager's do.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() auth.Users {
	args := m.Called()
	return args.Get(0).(auth.Users)
}

func (m *MockRepositoryManager) VerificationTokens() auth.VerificationTokens {
	args := m.Called()
	return args.Get(0).(auth.VerificationTokens)
}

// MockMailer implements auth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, template string, vars map[string]string) error {
	args := m.Called(ctx, template, vars)
	return args.Error(0)
}

// MockAttemptTracker implements auth.AttemptTracker
type MockAttemptTracker struct {
	mock.Mock
}

func (m *MockAttemptTracker) RecordFailure(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptTracker) RecordSuccess(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
