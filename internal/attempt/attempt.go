package attempt

import (
	"context"

	"github.com/google/uuid"
)

// key is the context key for the attempt ID.
type key struct{}

// NewContext returns a copy of parent tagged with a fresh attempt ID and
// the ID itself. One attempt covers one full plan execution, including
// every signing pass and ledger call it triggers.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the attempt ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}

// unitKey is the context key for the unit path within an attempt.
type unitKey struct{}

// WithUnit tags ctx with the positional path of the unit being executed,
// so events published downstream can be correlated to it.
func WithUnit(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, unitKey{}, path)
}

// UnitFromContext extracts the unit path from ctx.
func UnitFromContext(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(unitKey{}).(string)
	return p, ok
}
