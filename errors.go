package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidInput         = "INVALID_INPUT"
	TextCodeUserNotFound         = "USER_NOT_FOUND"
	TextCodeUserInactive         = "USER_INACTIVE"
	TextCodeProviderMismatch     = "PROVIDER_MISMATCH"
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeAccountLocked        = "ACCOUNT_LOCKED"
	TextCodeEmailExists          = "EMAIL_ALREADY_EXISTS"
	TextCodeTokenInvalid         = "TOKEN_INVALID"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeTokenAlreadyUsed     = "TOKEN_ALREADY_USED"
	TextCodeEmailMismatch        = "EMAIL_MISMATCH"
	TextCodePasswordConfirmation = "PASSWORD_CONFIRMATION_MISMATCH"
	TextCodeEmailDeliveryFailed  = "EMAIL_DELIVERY_FAILED"
	TextCodeUnauthorized         = "UNAUTHORIZED"
)

// ErrInvalidInput is returned when a caller provides empty or malformed input.
var ErrInvalidInput = errors.New("invalid input", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidInput).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when no user matches the supplied identifier.
// Boundary layers that want to avoid account enumeration may collapse this
// and ErrUserInactive into a single response.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrUserInactive is returned when the account exists but is deactivated.
var ErrUserInactive = errors.New("user is not active", errors.CategoryAuth).
	WithTextCode(TextCodeUserInactive).
	WithCode(errors.CodeNotFound)

// ErrProviderMismatch is returned when password login is attempted against
// an account owned by an external identity provider.
var ErrProviderMismatch = errors.New("account does not use local credentials", errors.CategoryAuth).
	WithTextCode(TextCodeProviderMismatch).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is returned on a failed password check below the
// lockout threshold.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrAccountLocked is returned the moment the failed-login threshold is
// crossed. It takes precedence over ErrInvalidCredentials.
var ErrAccountLocked = errors.New("account locked after repeated failed logins", errors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(errors.CodeForbidden)

// ErrEmailAlreadyExists is returned when registering an email that already
// has an account, compared case-insensitively.
var ErrEmailAlreadyExists = errors.New("email already registered", errors.CategoryValidation).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrTokenInvalid is returned for tampered tokens or tokens presented under
// the wrong purpose, regardless of their expiry.
var ErrTokenInvalid = errors.New("token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for well-signed tokens past their expiry.
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenAlreadyUsed is returned when a single-use token record has been
// consumed, independent of the signed token's validity window.
var ErrTokenAlreadyUsed = errors.New("token has already been used", errors.CategoryConflict).
	WithTextCode(TextCodeTokenAlreadyUsed).
	WithCode(errors.CodeConflict)

// ErrEmailMismatch is returned when the caller-supplied email does not match
// the email bound into the token claims.
var ErrEmailMismatch = errors.New("email does not match token", errors.CategoryValidation).
	WithTextCode(TextCodeEmailMismatch).
	WithCode(errors.CodeBadRequest)

// ErrPasswordConfirmationMismatch is returned when the new password and its
// confirmation differ.
var ErrPasswordConfirmationMismatch = errors.New("password confirmation does not match", errors.CategoryValidation).
	WithTextCode(TextCodePasswordConfirmation).
	WithCode(errors.CodeBadRequest)

// ErrEmailDeliveryFailed is returned when the mail collaborator reports a
// failure. Committed state changes are never rolled back because of it.
var ErrEmailDeliveryFailed = errors.New("email delivery failed", errors.CategoryOperation).
	WithTextCode(TextCodeEmailDeliveryFailed).
	WithCode(errors.CodeInternal)

// ErrUnauthorized is returned when a refresh token fails verification for
// any reason.
var ErrUnauthorized = errors.New("unauthorized", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)
