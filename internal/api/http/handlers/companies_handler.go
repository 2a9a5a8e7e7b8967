package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/directory-service/internal/api/dto"
	"github.com/spec-kit/directory-service/internal/query"
	"github.com/spec-kit/directory-service/internal/service"
	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

// CompaniesHandler exposes tenant management.
type CompaniesHandler struct {
	companies       *service.CompanyService
	defaultPageSize int
}

// NewCompaniesHandler constructs handler.
func NewCompaniesHandler(companyService *service.CompanyService, defaultPageSize int) *CompaniesHandler {
	return &CompaniesHandler{companies: companyService, defaultPageSize: defaultPageSize}
}

// Create handles POST /companies.
func (h *CompaniesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCompanyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	view, err := h.companies.CreateCompany(c.UserContext(), actor, service.CreateCompanyInput{
		Name:           req.CompanyName,
		AdminEmail:     req.Email,
		TokenUsage:     req.TokenUsage,
		TokenAllotment: req.TokenAllotment,
		IsActive:       isActive,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewCompanyViewResponse(*view))
}

// List handles GET /companies. The legacy regex parameter is accepted as a
// literal company name filter.
func (h *CompaniesHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	req, err := listingRequest(c, h.defaultPageSize, query.FieldCompanyName)
	if err != nil {
		return err
	}
	if _, ok := req.Filters[query.FieldCompanyName]; !ok {
		if legacy := c.Query("regex"); legacy != "" {
			req.Filters[query.FieldCompanyName] = legacy
		}
	}

	page, err := h.companies.ListCompanies(c.UserContext(), actor, req)
	if err != nil {
		return err
	}
	data := make([]dto.CompanyResponse, 0, len(page.Items))
	for _, view := range page.Items {
		data = append(data, dto.NewCompanyViewResponse(view))
	}
	return c.JSON(dto.ListResponse[dto.CompanyResponse]{
		Meta: dto.ListMeta{
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalCount: page.TotalCount,
			Count:      len(data),
		},
		Data: data,
	})
}

// Update handles PUT /companies/:id.
func (h *CompaniesHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCompanyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	company, err := h.companies.UpdateCompany(c.UserContext(), actor, c.Params("id"), service.UpdateCompanyInput{
		Name:           req.CompanyName,
		AdminID:        req.AdminID,
		TokenUsage:     req.TokenUsage,
		TokenAllotment: req.TokenAllotment,
		IsActive:       req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCompanyResponse(company))
}

// Delete handles DELETE /companies/:id.
func (h *CompaniesHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.companies.DeleteCompany(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "company deleted"})
}

// SetStatus handles PATCH /companies/:id/status?isActive=. A missing isActive activates.
func (h *CompaniesHandler) SetStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	isActive := true
	if raw := strings.TrimSpace(c.Query("isActive")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("isActive must be true or false", map[string]any{"isActive": raw})
		}
		isActive = parsed
	}

	company, err := h.companies.SetCompanyStatus(c.UserContext(), actor, c.Params("id"), isActive)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCompanyResponse(company))
}
