package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prostore/storefront/internal/config"
	"github.com/prostore/storefront/internal/constants"
	inErrors "github.com/prostore/storefront/internal/errors"
	inHttp "github.com/prostore/storefront/internal/http"
	"github.com/prostore/storefront/internal/log"
	"github.com/prostore/storefront/internal/session"
)

// Session resolves the caller identity for every request: the anonymous
// session cart id from the cookie (minted on first visit) plus the user id
// from the bearer token when one is present and valid. An invalid token only
// downgrades the caller to anonymous; protected routes are gated by Auth.
func Session(cfg config.Application) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(log.KeyTag, "middleware Session").
				Logger()

			identity := session.CallerIdentity{}

			cookie, err := r.Cookie(constants.SessionCartCookie)
			if err == nil {
				identity.SessionCartID, err = uuid.Parse(cookie.Value)
			}
			if err != nil || identity.SessionCartID == uuid.Nil {
				identity.SessionCartID = uuid.New()
				http.SetCookie(w, &http.Cookie{
					Name:     constants.SessionCartCookie,
					Value:    identity.SessionCartID.String(),
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				logger.Debug().
					Str(log.KeySessionCartID, identity.SessionCartID.String()).
					Msg("minted session cart id")
			}

			authorization := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(authorization, "Bearer "); ok {
				userId, err := session.VerifyToken(token, cfg.SecretKey)
				if err != nil {
					logger.Warn().Err(err).Msg("ignoring invalid bearer token")
				} else {
					identity.UserID = userId
					identity.Authenticated = true
				}
			}

			logger = logger.With().
				Str(log.KeySessionCartID, identity.SessionCartID.String()).
				Bool("authenticated", identity.Authenticated).
				Logger()
			logger.Trace().Msg("resolved caller identity")

			c := session.AttachToContext(r.Context(), identity)
			c = logger.WithContext(c)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

// Auth guards routes that require an authenticated user.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := r.Context()
		logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware Auth").Logger()

		identity, err := session.FromContext(c)
		if err != nil || !identity.Authenticated {
			logger.Error().
				Err(inErrors.ErrEmptyAuth).
				Msg(inErrors.ErrEmptyAuth.Error())
			inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
				"status":     "failed",
				"statusCode": http.StatusUnauthorized,
				"message":    inErrors.ErrEmptyAuth.Error(),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
