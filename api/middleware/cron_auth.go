package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jmcastellanos/tienda-backend/api/responses"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
	"github.com/jmcastellanos/tienda-backend/pkg/logger"
)

const cronSecretHeader = "X-Cron-Secret"

// CronSecret gates maintenance endpoints behind a shared secret. An empty
// configured secret disables the endpoints entirely rather than opening them.
func CronSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "maintenance endpoints disabled"))
				return
			}
			provided := strings.TrimSpace(r.Header.Get(cronSecretHeader))
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid maintenance secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
