package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/directory-service/internal/query"
)

// columnMap translates schema fields to SQL column names.
type columnMap map[query.Field]string

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a literal substring into a LIKE pattern.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// whereClause renders conditions as case-insensitive LIKE predicates joined by AND.
func whereClause(conditions []query.Condition, columns columnMap) (string, []any, error) {
	if len(conditions) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conditions))
	args := make([]any, 0, len(conditions))
	for _, cond := range conditions {
		col, ok := columns[cond.Field]
		if !ok {
			return "", nil, fmt.Errorf("no column for field %q", cond.Field)
		}
		args = append(args, containsPattern(cond.Contains))
		parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE $%d ESCAPE '\'`, col, len(args)))
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// orderClause sorts by the plan's key and breaks ties by id.
func orderClause(order query.Order, columns columnMap) (string, error) {
	col, ok := columns[order.Field]
	if !ok {
		return "", fmt.Errorf("no column for field %q", order.Field)
	}
	if order.Alphabetical {
		col = "LOWER(" + col + ")"
	}
	dir := "ASC"
	if order.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir), nil
}

func pageClause(plan query.Plan) string {
	return fmt.Sprintf(" LIMIT %d OFFSET %d", plan.Limit(), plan.Skip())
}
