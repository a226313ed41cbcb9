// Package state is the staging runtime: it owns the id counter, the tree
// of scopes that accumulate staged symbols, and the per-capture function
// cache.
//
// A State is never a global. Callers create one with New, install it in a
// context.Context with With, and recover it with From; staging code run
// against a context without a State fails with diag.ErrNoState.
package state
