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

type FinalizePasswordResetMessage struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	if err := validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&e.ConfirmPassword, validation.Required),
	); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid change password payload").
			WithTextCode(TextCodeInvalidInput)
	}

	// checked before any token is consumed so a typo cannot burn the
	// single-use reset record
	if e.Password != e.ConfirmPassword {
		return ErrPasswordConfirmationMismatch
	}

	return nil
}

// FinalizePasswordResetHandler consumes a password-reset token and persists
// the new credential. Token discipline matches email verification: the
// unused record and the email binding are checked before the atomic
// unused -> used flip, and only the flip winner changes the password.
type FinalizePasswordResetHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	hasher   PasswordAuthenticator
	mailer   Mailer
	logger   Logger
	appHost  string
	template string
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, codec *TokenCodec, cfg Config) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:     repo,
		codec:    codec,
		hasher:   bcryptHasher{},
		mailer:   NewLogMailer(defLogger{}),
		logger:   defLogger{},
		appHost:  cfg.GetAppHost(),
		template: "recovery",
	}
}

func (h *FinalizePasswordResetHandler) WithMailer(mailer Mailer) *FinalizePasswordResetHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) WithMailTemplate(template string) *FinalizePasswordResetHandler {
	if template != "" {
		h.template = template
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	claims, err := h.codec.Verify(PurposePasswordReset, event.Token)
	if err != nil {
		return err
	}

	tokenID, err := uuid.Parse(claims.TokenID)
	if err != nil {
		return ErrTokenInvalid
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.VerificationTokens().GetByTokenIDTx(ctx, tx, tokenID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset record")
		}

		if record.IsUsed {
			return ErrTokenAlreadyUsed
		}

		if record.Email != NormalizeEmail(event.Email) {
			return ErrEmailMismatch
		}

		if _, err := h.repo.VerificationTokens().MarkUsedTx(ctx, tx, tokenID); err != nil {
			return err
		}

		user, err = h.repo.Users().GetByEmailTx(ctx, tx, record.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user for password change")
		}

		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	vars := mailVars(user, loginLink(h.appHost))
	if err := h.mailer.Send(ctx, h.template, vars); err != nil {
		h.logger.Warn("password change mail delivery failed: %v", err)
		return ErrEmailDeliveryFailed
	}

	return nil
}
