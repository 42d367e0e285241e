package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned for any failed comparison, including a
// malformed stored hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// MaxPasswordBytes is bcrypt's input limit. Longer passwords are rejected,
// not truncated.
const MaxPasswordBytes = 72

// Cost 10 keeps hashes interchangeable with ones written by the web client.
const hashCost = bcrypt.DefaultCost

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func CheckPassword(hash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
