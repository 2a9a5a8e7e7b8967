package query

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
)

// Condition is a case-insensitive literal substring match on Field.
// Contains is stored lowercased.
type Condition struct {
	Field    Field
	Contains string
}

// Order is the primary sort of a Plan. Ties always break on record key ascending.
type Order struct {
	Field        Field
	Descending   bool
	Alphabetical bool
}

// Plan is one page of a listing. The zero value is not a valid plan; use Builder.
type Plan struct {
	match    []Condition
	order    Order
	page     int
	pageSize int
}

// CountPlan counts every record matching a Plan's predicate.
type CountPlan struct {
	match []Condition
}

// Record is the view of a stored item that plans match and sort on.
type Record interface {
	Text(Field) string
	Time(Field) time.Time
	Key() string
}

func (p Plan) Match() []Condition { return slices.Clone(p.match) }
func (p Plan) Order() Order       { return p.order }
func (p Plan) Page() int          { return p.page }
func (p Plan) PageSize() int      { return p.pageSize }
func (p Plan) Limit() int         { return p.pageSize }

// Skip is the number of records before the page. It saturates so that
// Skip()+Limit() never overflows; such a page is always past the end.
func (p Plan) Skip() int {
	if p.pageSize <= 0 || p.page <= 1 {
		return 0
	}
	if p.page-1 > (math.MaxInt-p.pageSize)/p.pageSize {
		return math.MaxInt - p.pageSize
	}
	return (p.page - 1) * p.pageSize
}

// CountPlan returns the predicate-only counterpart of p.
func (p Plan) CountPlan() CountPlan {
	return CountPlan{match: slices.Clone(p.match)}
}

// Matches reports whether r satisfies every condition of p.
func (p Plan) Matches(r Record) bool {
	return matchAll(p.match, r)
}

func (c CountPlan) Match() []Condition { return slices.Clone(c.match) }

// Matches reports whether r satisfies every condition of c.
func (c CountPlan) Matches(r Record) bool {
	return matchAll(c.match, r)
}

func matchAll(conds []Condition, r Record) bool {
	for _, cond := range conds {
		if !strings.Contains(strings.ToLower(r.Text(cond.Field)), cond.Contains) {
			return false
		}
	}
	return true
}

// Compare orders a and b under p's sort, falling back to the record key.
func (p Plan) Compare(a, b Record) int {
	var c int
	if p.order.Alphabetical {
		c = strings.Compare(strings.ToLower(a.Text(p.order.Field)), strings.ToLower(b.Text(p.order.Field)))
	} else {
		c = a.Time(p.order.Field).Compare(b.Time(p.order.Field))
	}
	if p.order.Descending {
		c = -c
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(a.Key(), b.Key())
}

// Execute applies plan to items in memory. It returns the requested page and
// the total number of matching items.
func Execute[T any](items []T, plan Plan, view func(T) Record) ([]T, int) {
	type entry struct {
		item   T
		record Record
	}
	matched := make([]entry, 0, len(items))
	for _, item := range items {
		rec := view(item)
		if plan.Matches(rec) {
			matched = append(matched, entry{item: item, record: rec})
		}
	}

	slices.SortStableFunc(matched, func(a, b entry) int {
		return plan.Compare(a.record, b.record)
	})

	total := len(matched)
	start := plan.Skip()
	if start < 0 || start >= total {
		return []T{}, total
	}
	end := min(start+plan.Limit(), total)

	page := make([]T, 0, end-start)
	for _, e := range matched[start:end] {
		page = append(page, e.item)
	}
	return page, total
}
