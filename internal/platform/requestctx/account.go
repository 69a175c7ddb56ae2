// Package requestctx carries verified caller identity through request contexts.
package requestctx

import "context"

// accountIDContextKey is the context key for the verified caller account.
type accountIDContextKey struct{}

// WithAccountID stores the verified caller account in context.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, accountIDContextKey{}, accountID)
}

// AccountIDFromContext returns the verified caller account stored in context.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(accountIDContextKey{}).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
