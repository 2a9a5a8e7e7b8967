package auth

import (
	"fmt"
	"strings"

	"github.com/spec-kit/directory-service/internal/domain"
	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

// CompanyManagers are the roles allowed to manage tenants.
var CompanyManagers = []domain.Role{domain.RoleSuperuser, domain.RoleSales}

// DirectoryReaders are the roles allowed to list every user.
var DirectoryReaders = []domain.Role{domain.RoleSuperuser, domain.RoleSales}

// CanCreate reports whether actor may create or manage an account holding target.
// SUPERUSER may create any role; everyone else needs a strictly higher priority.
func CanCreate(actor, target domain.Role) bool {
	if !target.IsValid() {
		return false
	}
	if actor == domain.RoleSuperuser {
		return true
	}
	return actor.Priority() > target.Priority()
}

// IsAllowed reports whether actor is one of allowed.
func IsAllowed(actor domain.Role, allowed ...domain.Role) bool {
	for _, role := range allowed {
		if role == actor {
			return true
		}
	}
	return false
}

// RequireRole fails with FORBIDDEN naming the allowed roles and the actor's role.
func RequireRole(actor domain.Role, allowed ...domain.Role) error {
	if IsAllowed(actor, allowed...) {
		return nil
	}
	names := make([]string, 0, len(allowed))
	for _, role := range allowed {
		names = append(names, string(role))
	}
	return apperrors.NewForbidden(
		fmt.Sprintf("Only %s roles may perform this action. You have role %s", strings.Join(names, ", "), actor),
		map[string]any{"allowed_roles": names, "actual_role": string(actor)},
	)
}

// RequireCanCreate fails with FORBIDDEN unless CanCreate(actor, target).
func RequireCanCreate(actor, target domain.Role) error {
	if CanCreate(actor, target) {
		return nil
	}
	return apperrors.NewForbidden(
		fmt.Sprintf("role %s has insufficient privileges to manage role %s", actor, target),
		map[string]any{"actual_role": string(actor), "target_role": string(target)},
	)
}
