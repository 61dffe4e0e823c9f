package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sharemeal/sharemeal-backend/pkg/logger"
)

const (
	requestIDHeader    = "X-Request-Id"
	maxRequestIDLength = 128
)

const ctxRequestID contextKey = "request_id"

// RequestID echoes a caller-supplied request id, or mints one, and tags the
// request logger with it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if reqID == "" || len(reqID) > maxRequestIDLength {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := context.WithValue(r.Context(), ctxRequestID, reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxRequestID).(string)
	return v
}
