package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/directory-service/internal/auth"
	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/query"
	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

type validatable interface {
	Validate() error
}

// bind decodes the JSON body into req and runs its validation rules.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
	}
	if v, ok := req.(validatable); ok {
		return apperrors.FromValidation(v.Validate())
	}
	return nil
}

func currentActor(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

// listingRequest reads page, pageSize, orderBy and the named filters from the
// query string.
func listingRequest(c *fiber.Ctx, defaultPageSize int, filters ...query.Field) (query.ListingRequest, error) {
	page, err := intParam(c, "page", 1)
	if err != nil {
		return query.ListingRequest{}, err
	}
	pageSize, err := intParam(c, "pageSize", defaultPageSize)
	if err != nil {
		return query.ListingRequest{}, err
	}
	req := query.ListingRequest{
		Page:     page,
		PageSize: pageSize,
		Sort:     query.SortKey(strings.TrimSpace(c.Query("orderBy"))),
		Filters:  make(map[query.Field]string, len(filters)),
	}
	for _, field := range filters {
		if value := c.Query(string(field)); value != "" {
			req.Filters[field] = value
		}
	}
	return req, nil
}

func intParam(c *fiber.Ctx, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name+" must be an integer", map[string]any{name: raw})
	}
	return n, nil
}
