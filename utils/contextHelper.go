package utils

import (
	"context"

	"github.com/mmdatafocus/books_valuation/appctx"
)

var (
	ContextKeyBusinessId      = appctx.ContextKeyBusinessId
	ContextKeyUserName        = appctx.ContextKeyUserName
	ContextKeyCorrelationId   = appctx.ContextKeyCorrelationId
	ContextKeySkipTenantScope = appctx.ContextKeySkipTenantScope
)

func GetBusinessIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyBusinessId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetBusinessIdInContext(ctx context.Context, businessId string) context.Context {
	return appctx.Set(ctx, ContextKeyBusinessId, businessId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

// SkipTenantScope marks ctx as an internal, cross-business context.
func SkipTenantScope(ctx context.Context) context.Context {
	return appctx.Set(ctx, ContextKeySkipTenantScope, true)
}
