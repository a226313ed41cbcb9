package state

import (
	"context"

	"argon/internal/diag"
)

type ctxKey struct{}

// With installs st for the dynamic extent of the returned context.
// Nesting shadows the outer State; the outer one is current again once
// the caller goes back to the outer context.
func With(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// From returns the current State or diag.ErrNoState.
func From(ctx context.Context) (*State, error) {
	if ctx != nil {
		if st, ok := ctx.Value(ctxKey{}).(*State); ok && st != nil {
			return st, nil
		}
	}
	return nil, diag.ErrNoState
}
