package query

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

// SortKey selects the order of a listing.
type SortKey string

const (
	SortAlphabeticalAsc  SortKey = "ALPHABETICAL_ASC"
	SortAlphabeticalDesc SortKey = "ALPHABETICAL_DESC"
	SortCreatedAsc       SortKey = "CREATED_AT_DATE_ASC"
	SortCreatedDesc      SortKey = "CREATED_AT_DATE_DESC"
	SortUpdatedAsc       SortKey = "UPDATED_AT_DATE_ASC"
	SortUpdatedDesc      SortKey = "UPDATED_AT_DATE_DESC"
)

// DefaultSort applies when a request names no sort key.
const DefaultSort = SortAlphabeticalAsc

// SortKeys returns every accepted sort key.
func SortKeys() []SortKey {
	return []SortKey{
		SortAlphabeticalAsc, SortAlphabeticalDesc,
		SortCreatedAsc, SortCreatedDesc,
		SortUpdatedAsc, SortUpdatedDesc,
	}
}

// ListingRequest carries raw listing parameters.
type ListingRequest struct {
	Page     int
	PageSize int
	Filters  map[Field]string
	Sort     SortKey
}

// Builder validates listing requests against a schema.
type Builder struct {
	schema      Schema
	maxPageSize int
}

// NewBuilder returns a builder for schema. maxPageSize caps the page size.
func NewBuilder(schema Schema, maxPageSize int) *Builder {
	return &Builder{schema: schema, maxPageSize: maxPageSize}
}

// Build validates req and returns its plan. Blank filter values are ignored.
func (b *Builder) Build(req ListingRequest) (Plan, error) {
	if req.Page < 1 {
		return Plan{}, apperrors.NewValidationError("page must be a positive integer", map[string]any{"page": req.Page})
	}
	if req.PageSize < 1 {
		return Plan{}, apperrors.NewValidationError("pageSize must be a positive integer", map[string]any{"pageSize": req.PageSize})
	}
	if b.maxPageSize > 0 && req.PageSize > b.maxPageSize {
		return Plan{}, apperrors.NewValidationError(
			fmt.Sprintf("pageSize must not exceed %d", b.maxPageSize),
			map[string]any{"pageSize": req.PageSize, "max": b.maxPageSize},
		)
	}

	order, err := b.order(req.Sort)
	if err != nil {
		return Plan{}, err
	}

	match := make([]Condition, 0, len(req.Filters))
	for field, value := range req.Filters {
		if !b.schema.filterable(field) {
			return Plan{}, apperrors.NewValidationError(
				fmt.Sprintf("%s cannot be filtered by %s", b.schema.Name, field),
				map[string]any{"field": string(field)},
			)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		match = append(match, Condition{Field: field, Contains: strings.ToLower(value)})
	}
	slices.SortFunc(match, func(a, c Condition) int {
		return strings.Compare(string(a.Field), string(c.Field))
	})

	return Plan{
		match:    match,
		order:    order,
		page:     req.Page,
		pageSize: req.PageSize,
	}, nil
}

func (b *Builder) order(key SortKey) (Order, error) {
	if key == "" {
		key = DefaultSort
	}
	switch SortKey(strings.ToUpper(string(key))) {
	case SortAlphabeticalAsc:
		return Order{Field: b.schema.Alphabetical, Alphabetical: true}, nil
	case SortAlphabeticalDesc:
		return Order{Field: b.schema.Alphabetical, Alphabetical: true, Descending: true}, nil
	case SortCreatedAsc:
		return Order{Field: b.schema.CreatedAt}, nil
	case SortCreatedDesc:
		return Order{Field: b.schema.CreatedAt, Descending: true}, nil
	case SortUpdatedAsc:
		return Order{Field: b.schema.UpdatedAt}, nil
	case SortUpdatedDesc:
		return Order{Field: b.schema.UpdatedAt, Descending: true}, nil
	default:
		return Order{}, apperrors.NewValidationError(
			fmt.Sprintf("unknown sort key %q", key),
			map[string]any{"orderBy": string(key)},
		)
	}
}
