package middleware

import (
	"context"

	"github.com/NICOLA-200/pms-restful/pkg/enums"
	"github.com/NICOLA-200/pms-restful/pkg/types"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxUserID).(int64); ok {
		return v
	}
	return 0
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// PrincipalFromContext assembles the authenticated caller seeded by Auth.
func PrincipalFromContext(ctx context.Context) types.Principal {
	return types.Principal{
		UserID: UserIDFromContext(ctx),
		Role:   RoleFromContext(ctx),
	}
}

// WithPrincipal injects the caller identity into the context. Exposed for tests.
func WithPrincipal(ctx context.Context, principal types.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, principal.UserID)
	return context.WithValue(ctx, ctxRole, principal.Role)
}
