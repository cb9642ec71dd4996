package middleware

import (
	"context"

	"github.com/angelmondragon/gamedepot-backend/pkg/auth"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal injects the authenticated operator into the context.
func WithPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}

// PrincipalFromContext returns the operator set by Auth, or the zero value.
func PrincipalFromContext(ctx context.Context) auth.Principal {
	if ctx == nil {
		return auth.Principal{}
	}
	if v, ok := ctx.Value(ctxPrincipal).(auth.Principal); ok {
		return v
	}
	return auth.Principal{}
}

func UserIDFromContext(ctx context.Context) string {
	return PrincipalFromContext(ctx).UserID
}

func RoleFromContext(ctx context.Context) string {
	return string(PrincipalFromContext(ctx).Role)
}

const ctxTrace contextKey = "trace"

// requestTrace is shared by pointer so Recoverer, which wraps Auth, can still
// name the operator whose request panicked.
type requestTrace struct {
	principal auth.Principal
}

func withTrace(ctx context.Context, trace *requestTrace) context.Context {
	return context.WithValue(ctx, ctxTrace, trace)
}

func traceFromContext(ctx context.Context) *requestTrace {
	if ctx == nil {
		return nil
	}
	trace, _ := ctx.Value(ctxTrace).(*requestTrace)
	return trace
}
