package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/gamedepot-backend/api/responses"
	pkgAuth "github.com/angelmondragon/gamedepot-backend/pkg/auth"
	"github.com/angelmondragon/gamedepot-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the operator.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			principal := pkgAuth.PrincipalFromClaims(claims)
			ctx := WithPrincipal(r.Context(), principal)
			if trace := traceFromContext(ctx); trace != nil {
				trace.principal = principal
			}
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.UserID)
				ctx = logg.WithActorRole(ctx, string(principal.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
