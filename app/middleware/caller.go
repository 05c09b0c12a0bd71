package middleware

import (
	"context"

	"github.com/vibast-solutions/ms-go-booking/app/entity"
)

type callerKey struct{}

// ContextKeyCaller is the echo context key holding the authenticated account.
const ContextKeyCaller = "caller"

func WithCaller(ctx context.Context, caller *entity.Account) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the authenticated account, or nil for anonymous requests.
func CallerFromContext(ctx context.Context) *entity.Account {
	caller, _ := ctx.Value(callerKey{}).(*entity.Account)
	return caller
}
