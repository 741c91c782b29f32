package middleware

import (
	"net/http"
	"strings"

	"github.com/jmcastellanos/tienda-backend/pkg/logger"
)

const (
	sessionIDHeader = "X-Session-Id"
	cartCookieName  = "tienda_cart"
)

// Identity extracts the anonymous checkout identity carried by the request:
// a session header, a cart cookie, or both. There is no authentication here;
// the identity only scopes which reservations a caller may touch.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader)); sessionID != "" {
				ctx = WithSessionID(ctx, sessionID)
				if logg != nil {
					ctx = logg.WithSessionID(ctx, sessionID)
				}
			}

			if cookie, err := r.Cookie(cartCookieName); err == nil && cookie.Value != "" {
				ctx = WithCookieID(ctx, cookie.Value)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
