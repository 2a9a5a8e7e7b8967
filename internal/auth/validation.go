package auth

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// PasswordRules are the strength rules applied to every new password.
// The first violated rule is reported.
func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(8, 0).Error("must be at least 8 characters"),
		validation.Length(0, maxPasswordBytes).Error("must be at most 72 characters"),
		validation.By(containsRune(unicode.IsUpper, "must contain at least one uppercase letter")),
		validation.By(containsRune(unicode.IsLower, "must contain at least one lowercase letter")),
		validation.By(containsRune(unicode.IsDigit, "must contain at least one digit")),
	}
}

func containsRune(pred func(rune) bool, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.IndexFunc(s, pred) < 0 {
			return errors.New(message)
		}
		return nil
	}
}

// ValidatePasswordStrength checks plain against PasswordRules.
func ValidatePasswordStrength(plain string) error {
	if err := validation.Validate(plain, PasswordRules()...); err != nil {
		return apperrors.NewValidationError("password: "+err.Error(), map[string]any{"password": err.Error()})
	}
	return nil
}

// NormalizeEmail trims and lowercases raw and checks its syntax.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return "", apperrors.NewValidationError("email: "+err.Error(), map[string]any{"email": err.Error()})
	}
	return email, nil
}
