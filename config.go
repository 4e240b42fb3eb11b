package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// EnvConfig is an environment-backed Config implementation. Secrets are
// read once at startup; there is no runtime mutation.
type EnvConfig struct {
	AccessSecret       string `env:"SECRET_JWT"`
	RefreshSecret      string `env:"SECRET_JWT_REFRESH"`
	VerificationSecret string `env:"SECRET_JWT_REGISTER"`
	ResetSecret        string `env:"SECRET_JWT_RESET"`
	HandoffSecret      string `env:"SECRET_JWT_HANDOFF"`

	AccessTTL       time.Duration `env:"TOKEN_TTL_ACCESS" envDefault:"10m"`
	RefreshTTL      time.Duration `env:"TOKEN_TTL_REFRESH" envDefault:"168h"`
	VerificationTTL time.Duration `env:"TOKEN_TTL_REGISTER" envDefault:"24h"`
	ResetTTL        time.Duration `env:"TOKEN_TTL_RESET" envDefault:"1h"`
	HandoffTTL      time.Duration `env:"TOKEN_TTL_HANDOFF" envDefault:"5m"`

	Issuer   string   `env:"TOKEN_ISSUER"`
	Audience []string `env:"TOKEN_AUDIENCE" envSeparator:","`

	MaxLoginAttempts int `env:"MAX_PASS_FAILURES" envDefault:"5"`

	AppHost     string `env:"APP_FRONT_HOST" envDefault:"http://localhost"`
	CallbackURL string `env:"PROVIDER_CALLBACK_URL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisUsername string `env:"REDIS_USERNAME"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	MailTemplateRegister string `env:"MAIL_TEMPLATE_REGISTER" envDefault:"register"`
	MailTemplateLogin    string `env:"MAIL_TEMPLATE_LOGIN" envDefault:"login"`
	MailTemplateForgot   string `env:"MAIL_TEMPLATE_FORGOT" envDefault:"forgot_password"`
	MailTemplateRecovery string `env:"MAIL_TEMPLATE_RECOVERY" envDefault:"recovery"`
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig parses the environment into an EnvConfig.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse auth configuration")
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningSecret(purpose Purpose) string {
	switch purpose {
	case PurposeAccess:
		return c.AccessSecret
	case PurposeRefresh:
		return c.RefreshSecret
	case PurposeEmailVerification:
		return c.VerificationSecret
	case PurposePasswordReset:
		return c.ResetSecret
	case PurposeThirdParty:
		return c.HandoffSecret
	default:
		return ""
	}
}

func (c *EnvConfig) GetTokenTTL(purpose Purpose) time.Duration {
	switch purpose {
	case PurposeAccess:
		return c.AccessTTL
	case PurposeRefresh:
		return c.RefreshTTL
	case PurposeEmailVerification:
		return c.VerificationTTL
	case PurposePasswordReset:
		return c.ResetTTL
	case PurposeThirdParty:
		return c.HandoffTTL
	default:
		return 0
	}
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetAudience() []string {
	return c.Audience
}

func (c *EnvConfig) GetMaxLoginAttempts() int {
	return c.MaxLoginAttempts
}

func (c *EnvConfig) GetAppHost() string {
	return c.AppHost
}

func (c *EnvConfig) GetCallbackURL() string {
	return c.CallbackURL
}
