package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errEmptyPassword = errors.New("password must not be empty")

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches hashed.
// A malformed or truncated hash never matches.
func VerifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// RandomPasswordHash hashes a random secret nobody knows. It backs accounts
// that must finish onboarding through a reset link, and the dummy comparison
// run when a login names an unknown email.
func RandomPasswordHash(cost int) (string, error) {
	return HashPassword(uuid.NewString(), cost)
}
