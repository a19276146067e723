package middleware

import (
	"context"

	"payflow/internal/domain/auth"
	"payflow/internal/requestctx"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
