package middleware

import (
	"net/http"
	"strings"

	"github.com/sharemeal/sharemeal-backend/api/responses"
	"github.com/sharemeal/sharemeal-backend/internal/access"
	pkgAuth "github.com/sharemeal/sharemeal-backend/pkg/auth"
	"github.com/sharemeal/sharemeal-backend/pkg/config"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the actor.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := access.Actor{
				ID:       claims.UserID,
				Role:     claims.Role,
				Verified: claims.Verified,
			}
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor.ID.String(), string(actor.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ServiceAuth admits trusted machine callers presenting the configured service
// token. An unset token rejects every request.
func ServiceAuth(cfg config.ServiceAuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing service token"))
				return
			}
			if !pkgAuth.ServiceTokenMatches(cfg.Token, token) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid service token"))
				return
			}

			ctx := withServiceCaller(r.Context())
			if logg != nil {
				ctx = logg.WithField(ctx, "caller", "ai-service")
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
