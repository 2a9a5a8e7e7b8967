// Package query turns listing parameters into an immutable Plan: a match
// predicate, a sort order and a skip/limit window, plus a CountPlan that
// shares the predicate. Stores execute plans; Execute is the in-process
// executor used by the memory store.
package query
