// Package auth provides authentication primitives (password hashing,
// purpose-scoped JWT issuance, stateful repositories) plus the account
// lifecycle workflows built on top of them.
//
// Token purposes:
//   - Every token is signed under a Purpose (access, refresh, email
//     verification, password reset, third party) with its own secret and
//     lifetime. A token presented under the wrong purpose fails the
//     signature check outright, so flows can never be crossed.
//   - Email verification and password reset tokens are additionally backed
//     by a single-use VerificationToken record. The unused -> used flip is
//     one atomic statement, so exactly one of N concurrent consumers wins.
//
// Workflows:
//   - Auther composes the hasher, the TokenCodec, an AttemptTracker, and
//     the repositories into login, refresh, and third-party login. Crossing
//     the failed-login threshold deactivates the account.
//   - RegisterUserHandler, VerifyEmailHandler, and the two password reset
//     handlers are transactional command handlers: validate the message,
//     mutate inside RunInTx, notify by mail after commit. Mail delivery is
//     best effort and never rolls back committed state.
//
// Collaborators (Mailer, AttemptTracker, PasswordAuthenticator) are small
// interfaces with in-process defaults; swap them with the With* builders.
package auth
