package middleware

import "context"

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxCookieID  contextKey = "cookie_id"
)

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

func CookieIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCookieID).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the checkout session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithCookieID injects the anonymous cart cookie identifier into the context.
func WithCookieID(ctx context.Context, cookieID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCookieID, cookieID)
}
