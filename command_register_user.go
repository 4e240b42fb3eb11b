package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FirstName, validation.Length(0, 200)),
		validation.Field(&e.LastName, validation.Length(0, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Phone, validation.Length(0, 15)),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 72)),
	)
}

// RegisterUserHandler creates an inactive local account and mints its
// single-use email-verification token. The mail send happens after the
// transaction commits: a delivery failure surfaces EmailDeliveryFailed but
// never rolls the account back.
type RegisterUserHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	hasher   PasswordAuthenticator
	mailer   Mailer
	logger   Logger
	appHost  string
	template string
	region   string
}

func NewRegisterUserHandler(repo RepositoryManager, codec *TokenCodec, cfg Config) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		codec:    codec,
		hasher:   bcryptHasher{},
		mailer:   NewLogMailer(defLogger{}),
		logger:   defLogger{},
		appHost:  cfg.GetAppHost(),
		template: "register",
		region:   "US",
	}
}

func (h *RegisterUserHandler) WithMailer(mailer Mailer) *RegisterUserHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) WithMailTemplate(template string) *RegisterUserHandler {
	if template != "" {
		h.template = template
	}
	return h
}

// WithPhoneRegion sets the default region used to normalize phone numbers.
func (h *RegisterUserHandler) WithPhoneRegion(region string) *RegisterUserHandler {
	if region != "" {
		h.region = region
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithTextCode(TextCodeInvalidInput)
	}

	email := NormalizeEmail(event.Email)

	exists, err := h.repo.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}
	if exists {
		return ErrEmailAlreadyExists
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	tokenID := uuid.New()
	token, err := h.codec.Issue(PurposeEmailVerification, ClaimSpec{
		TokenID: tokenID.String(),
		Email:   email,
	})
	if err != nil {
		return err
	}

	user := &User{
		FirstName:    event.FirstName,
		LastName:     event.LastName,
		Email:        email,
		Phone:        h.normalizePhone(event.Phone),
		PasswordHash: hash,
		Provider:     ProviderLocal,
		Active:       false,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		record := &VerificationToken{
			TokenID: tokenID,
			Email:   email,
			Token:   token,
			Purpose: string(PurposeEmailVerification),
		}

		if _, err := h.repo.VerificationTokens().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create verification token record")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	vars := mailVars(user, verificationLink(h.appHost, token))
	if err := h.mailer.Send(ctx, h.template, vars); err != nil {
		h.logger.Warn("verification mail delivery failed: %v", err)
		return ErrEmailDeliveryFailed
	}

	return nil
}

func (h *RegisterUserHandler) normalizePhone(phone string) string {
	if phone == "" {
		return ""
	}

	num, err := phonenumbers.Parse(phone, h.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}

	return phonenumbers.Format(num, phonenumbers.E164)
}
