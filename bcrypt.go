package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrInvalidInput
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password. A malformed hash is treated as a
// mismatch, never as a panic.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return ErrInvalidCredentials
	}
	return nil
}

// RandomPasswordHash is the hash of a throwaway secret, used for accounts
// created from third-party identities. The cleartext is never exposed.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

type bcryptHasher struct{}

func (bcryptHasher) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (bcryptHasher) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

var _ PasswordAuthenticator = bcryptHasher{}
