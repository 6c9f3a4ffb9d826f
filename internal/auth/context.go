package auth

import "context"

type contextKey string

const operatorContextKey contextKey = "operator"

// WithOperator attaches Claims to ctx.
func WithOperator(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, operatorContextKey, claims)
}

// OperatorFromContext retrieves Claims set by WithOperator.
func OperatorFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(operatorContextKey).(*Claims)
	return claims, ok
}
