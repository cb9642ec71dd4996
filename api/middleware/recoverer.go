package middleware

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/gamedepot-backend/api/responses"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
)

// Recoverer turns a panic in a settlement handler into a 500 and logs the
// operator behind it. It must sit inside RequestID so the entry carries the
// request id and idempotency key. 5xx responses are never stored for replay.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					fields := map[string]any{
						"panic":  fmt.Sprint(rec),
						"method": r.Method,
						"path":   r.URL.Path,
					}
					if trace := traceFromContext(ctx); trace != nil && trace.principal.UserID != "" {
						fields["user_id"] = trace.principal.UserID
						fields["actor_role"] = string(trace.principal.Role)
					}
					ctx = logg.WithFields(ctx, fields)
					logg.Error(ctx, "settlement handler panicked", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
