package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (e InitializePasswordResetMessage) Type() string { return "user.password_reset" }

func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// InitializePasswordResetHandler mints a single-use password-reset token
// for an existing account and mails the reset link. The reset link carries
// the signed token; the caller only gets an acknowledgement.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	mailer   Mailer
	logger   Logger
	appHost  string
	template string
}

func NewInitializePasswordResetHandler(repo RepositoryManager, codec *TokenCodec, cfg Config) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		codec:    codec,
		mailer:   NewLogMailer(defLogger{}),
		logger:   defLogger{},
		appHost:  cfg.GetAppHost(),
		template: "forgot_password",
	}
}

func (h *InitializePasswordResetHandler) WithMailer(mailer Mailer) *InitializePasswordResetHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) WithMailTemplate(template string) *InitializePasswordResetHandler {
	if template != "" {
		h.template = template
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload").
			WithTextCode(TextCodeInvalidInput)
	}

	email := NormalizeEmail(event.Email)

	user, err := h.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	tokenID := uuid.New()
	token, err := h.codec.Issue(PurposePasswordReset, ClaimSpec{
		TokenID: tokenID.String(),
		Email:   email,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &VerificationToken{
			TokenID: tokenID,
			Email:   email,
			Token:   token,
			Purpose: string(PurposePasswordReset),
		}

		if _, err := h.repo.VerificationTokens().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	vars := mailVars(user, passwordResetLink(h.appHost, token))
	if err := h.mailer.Send(ctx, h.template, vars); err != nil {
		h.logger.Warn("password reset mail delivery failed: %v", err)
		return ErrEmailDeliveryFailed
	}

	return nil
}
