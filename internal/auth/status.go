package auth

import (
	"time"

	"github.com/spec-kit/directory-service/internal/domain"
	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

// RequireActive passes only ACTIVE accounts.
func RequireActive(user *domain.User) (*domain.User, error) {
	if user == nil || user.Status != domain.AccountStatusActive {
		return nil, apperrors.NewForbidden("Current user is not active and not authorized.", nil)
	}
	return user, nil
}

// RequireActiveOrPending passes ACTIVE and PENDING accounts. It is only used
// when completing a password reset, so that PENDING accounts can onboard.
func RequireActiveOrPending(user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, apperrors.NewForbidden("Current user is not active or pending registration, and not authorized.", nil)
	}
	switch user.Status {
	case domain.AccountStatusActive, domain.AccountStatusPending:
		return user, nil
	default:
		return nil, apperrors.NewForbidden("Current user is not active or pending registration, and not authorized.", nil)
	}
}

// Activate moves user to ACTIVE.
func Activate(user *domain.User, now time.Time) *domain.User {
	user.Status = domain.AccountStatusActive
	user.UpdatedAt = now
	return user
}

// Deactivate moves user to DEACTIVATED.
func Deactivate(user *domain.User, now time.Time) *domain.User {
	user.Status = domain.AccountStatusDeactivated
	user.UpdatedAt = now
	return user
}
