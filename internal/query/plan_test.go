package query

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	id      string
	first   string
	last    string
	company string
	joined  time.Time
	updated time.Time
}

type personRecord struct{ p person }

func (r personRecord) Text(f Field) string {
	switch f {
	case FieldFirstName:
		return r.p.first
	case FieldLastName:
		return r.p.last
	case FieldCompanyName:
		return r.p.company
	}
	return ""
}

func (r personRecord) Time(f Field) time.Time {
	switch f {
	case FieldDateJoined:
		return r.p.joined
	case FieldUpdatedAt:
		return r.p.updated
	}
	return time.Time{}
}

func (r personRecord) Key() string { return r.p.id }

func view(p person) Record { return personRecord{p: p} }

func fixture(n int) []person {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	people := make([]person, 0, n)
	for i := 0; i < n; i++ {
		people = append(people, person{
			id:      fmt.Sprintf("%04d", i),
			first:   fmt.Sprintf("First%02d", i%7),
			last:    fmt.Sprintf("Last%02d", (i*37)%53),
			company: []string{"Acme", "XYZ Trucking", "acme labs"}[i%3],
			joined:  base.Add(time.Duration(i%11) * time.Hour),
			updated: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return people
}

func mustBuild(t *testing.T, schema Schema, req ListingRequest) Plan {
	t.Helper()
	plan, err := NewBuilder(schema, 250).Build(req)
	require.NoError(t, err)
	return plan
}

func ids(items []person) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.id)
	}
	return out
}

func TestExecutePagesAreDisjointAndContiguous(t *testing.T) {
	people := fixture(75)
	for _, sort := range SortKeys() {
		t.Run(string(sort), func(t *testing.T) {
			page1, total := Execute(people, mustBuild(t, UserSchema, ListingRequest{Page: 1, PageSize: 20, Sort: sort}), view)
			page2, _ := Execute(people, mustBuild(t, UserSchema, ListingRequest{Page: 2, PageSize: 20, Sort: sort}), view)
			both, _ := Execute(people, mustBuild(t, UserSchema, ListingRequest{Page: 1, PageSize: 40, Sort: sort}), view)

			assert.Equal(t, 75, total)
			assert.Len(t, page1, 20)
			assert.Len(t, page2, 20)
			assert.NotContains(t, ids(page1), ids(page2)[0])
			for _, id := range ids(page2) {
				assert.NotContains(t, ids(page1), id)
			}
			assert.Equal(t, ids(both), append(ids(page1), ids(page2)...))
		})
	}
}

func TestExecuteAlphabeticalIgnoresCase(t *testing.T) {
	people := []person{
		{id: "1", last: "bravo"},
		{id: "2", last: "Alpha"},
		{id: "3", last: "charlie"},
	}

	asc, _ := Execute(people, mustBuild(t, UserSchema, ListingRequest{Page: 1, PageSize: 10}), view)
	desc, _ := Execute(people, mustBuild(t, UserSchema, ListingRequest{Page: 1, PageSize: 10, Sort: SortAlphabeticalDesc}), view)

	assert.Equal(t, []string{"2", "1", "3"}, ids(asc))
	assert.Equal(t, []string{"3", "1", "2"}, ids(desc))
}

func TestExecuteTiesBreakOnKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	people := []person{
		{id: "c", joined: at},
		{id: "a", joined: at},
		{id: "b", joined: at},
	}

	asc, _ := Execute(people, mustBuild(t, UserSchema, ListingRequest{Page: 1, PageSize: 10, Sort: SortCreatedAsc}), view)
	desc, _ := Execute(people, mustBuild(t, UserSchema, ListingRequest{Page: 1, PageSize: 10, Sort: SortCreatedDesc}), view)

	assert.Equal(t, []string{"a", "b", "c"}, ids(asc))
	assert.Equal(t, []string{"a", "b", "c"}, ids(desc))
}

func TestExecuteIsDeterministic(t *testing.T) {
	people := fixture(40)
	plan := mustBuild(t, UserSchema, ListingRequest{Page: 2, PageSize: 7, Sort: SortCreatedDesc})

	first, _ := Execute(people, plan, view)
	for i := 0; i < 5; i++ {
		again, _ := Execute(people, plan, view)
		assert.Equal(t, ids(first), ids(again))
	}
}

func TestExecuteFilters(t *testing.T) {
	people := fixture(30)

	t.Run("empty filter matches all", func(t *testing.T) {
		_, total := Execute(people, mustBuild(t, UserSchema, ListingRequest{Page: 1, PageSize: 5}), view)
		assert.Equal(t, 30, total)
	})

	t.Run("case-insensitive substring", func(t *testing.T) {
		items, total := Execute(people, mustBuild(t, UserSchema, ListingRequest{
			Page: 1, PageSize: 50, Filters: map[Field]string{FieldCompanyName: "ACME"},
		}), view)
		assert.Equal(t, 20, total)
		for _, p := range items {
			assert.Contains(t, []string{"Acme", "acme labs"}, p.company)
		}
	})

	t.Run("regex metacharacters are literal", func(t *testing.T) {
		_, total := Execute(people, mustBuild(t, UserSchema, ListingRequest{
			Page: 1, PageSize: 50, Filters: map[Field]string{FieldCompanyName: ".*"},
		}), view)
		assert.Zero(t, total)
	})

	t.Run("count plan agrees with total", func(t *testing.T) {
		plan := mustBuild(t, UserSchema, ListingRequest{
			Page: 1, PageSize: 3, Filters: map[Field]string{FieldFirstName: "first0"},
		})
		_, total := Execute(people, plan, view)
		counted := 0
		for _, p := range people {
			if plan.CountPlan().Matches(view(p)) {
				counted++
			}
		}
		assert.Equal(t, counted, total)
	})
}

func TestExecutePageBeyondEnd(t *testing.T) {
	items, total := Execute(fixture(5), mustBuild(t, UserSchema, ListingRequest{Page: 9, PageSize: 10}), view)

	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 5, total)
}

func TestExecuteHugePageIsEmpty(t *testing.T) {
	people := fixture(5)
	for _, page := range []int{math.MaxInt / 10, math.MaxInt} {
		plan := mustBuild(t, UserSchema, ListingRequest{Page: page, PageSize: 20})

		assert.GreaterOrEqual(t, plan.Skip(), 0)
		assert.LessOrEqual(t, plan.Skip(), math.MaxInt-plan.Limit())

		got, total := Execute(people, plan, view)
		assert.Empty(t, got)
		assert.Equal(t, 5, total)
		assert.Equal(t, page, plan.Page())
	}
}
