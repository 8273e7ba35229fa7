package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Echoed back on every response so a client-reported failure can be matched
// to its log lines.
const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// Tracing assigns each request an id, honoring one the caller supplied.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TraceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
