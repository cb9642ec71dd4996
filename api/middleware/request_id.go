package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
)

const (
	requestIDHeader      = "X-Request-Id"
	idempotencyKeyHeader = "Idempotency-Key"

	maxLoggedKeyLen = 128
)

// Inbound ids are echoed into headers and logs, so only plain tokens are kept.
var requestIDRe = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// RequestID tags the request with an id, reusing a well-formed inbound
// X-Request-Id, and opens the trace read back by Recoverer. The settlement
// Idempotency-Key rides along in the log context so retries can be correlated.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if !requestIDRe.MatchString(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := withTrace(r.Context(), &requestTrace{})
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
				if key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)); key != "" && len(key) <= maxLoggedKeyLen {
					ctx = logg.WithField(ctx, "idempotency_key", key)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
