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

type VerifyEmailMessage struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

func (e VerifyEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Token, validation.Required),
	)
}

// VerifyEmailHandler consumes an email-verification token and activates the
// account. Consumption discipline: signature/expiry first, then the
// single-use record, then the email binding. Exactly one of N concurrent
// consumers of the same token id wins; the rest get TokenAlreadyUsed.
type VerifyEmailHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	mailer   Mailer
	logger   Logger
	appHost  string
	template string
}

func NewVerifyEmailHandler(repo RepositoryManager, codec *TokenCodec, cfg Config) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:     repo,
		codec:    codec,
		mailer:   NewLogMailer(defLogger{}),
		logger:   defLogger{},
		appHost:  cfg.GetAppHost(),
		template: "login",
	}
}

func (h *VerifyEmailHandler) WithMailer(mailer Mailer) *VerifyEmailHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) WithMailTemplate(template string) *VerifyEmailHandler {
	if template != "" {
		h.template = template
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid verification payload").
			WithTextCode(TextCodeInvalidInput)
	}

	claims, err := h.codec.Verify(PurposeEmailVerification, event.Token)
	if err != nil {
		return err
	}

	tokenID, err := uuid.Parse(claims.TokenID)
	if err != nil {
		return ErrTokenInvalid
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
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve verification token record")
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
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user for activation")
		}

		if err := h.repo.Users().SetActiveTx(ctx, tx, user.ID, true); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify email")
	}

	// activation is committed; a failed notification surfaces but does not
	// revert it
	vars := mailVars(user, loginLink(h.appHost))
	if err := h.mailer.Send(ctx, h.template, vars); err != nil {
		h.logger.Warn("activation mail delivery failed: %v", err)
		return ErrEmailDeliveryFailed
	}

	return nil
}
