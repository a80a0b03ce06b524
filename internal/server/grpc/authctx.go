package grpcserver

import (
	"context"

	"github.com/and161185/pairchat/internal/auth"
)

type ctxKey string

const identityKey ctxKey = "pc.identity"

// WithIdentity stores the authenticated caller in context.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx fetches the authenticated caller from context.
func IdentityFromCtx(ctx context.Context) (auth.Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
