package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID propagates an incoming X-Request-Id or mints a fresh one, making
// it available to handlers via the context and echoing it on the response so
// callers can correlate ingestion runs with server logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		ctx := WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
