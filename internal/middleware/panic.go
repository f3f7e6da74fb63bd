package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	inHttp "github.com/prostore/storefront/internal/http"
	"github.com/prostore/storefront/internal/log"
)

func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			c := r.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "middleware RecoverPanic").
				Logger()
			logger.Error().Any("panic", rec).Msg("recovered from panic")
			inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusInternalServerError,
				"message":    "internal server error",
			})
		}()
		next.ServeHTTP(w, r)
	})
}
