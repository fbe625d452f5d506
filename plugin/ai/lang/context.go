package lang

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying the reply language of the turn.
func NewContext(ctx context.Context, l Language) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the reply language stored in ctx, English if none.
func FromContext(ctx context.Context) Language {
	if l, ok := ctx.Value(contextKey{}).(Language); ok {
		return l
	}
	return English
}
