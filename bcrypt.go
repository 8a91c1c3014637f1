package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost balances login latency against brute-force resistance. The
// bcrypt format self-describes its cost, so raising this later does not
// invalidate stored hashes.
const BcryptCost = 10

// bcrypt keys on at most 72 bytes. Accepted passwords run up to 100
// characters, so longer inputs are truncated before hashing and comparing;
// without this, GenerateFromPassword errors on them.
const maxPasswordBytes = 72

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// HashPassword will generate a password hash. The salt is random, so the
// same input yields a different hash on every call.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword(passwordBytes(password), BcryptCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. Malformed hashes report a mismatch, never a panic.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// VerifyPassword is the boolean convenience over ComparePasswordAndHash.
func VerifyPassword(password, hash string) bool {
	return ComparePasswordAndHash(password, hash) == nil
}

type bcryptHasher struct{}

// NewPasswordAuthenticator returns the bcrypt-backed PasswordAuthenticator.
func NewPasswordAuthenticator() PasswordAuthenticator {
	return bcryptHasher{}
}

func (bcryptHasher) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (bcryptHasher) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}
