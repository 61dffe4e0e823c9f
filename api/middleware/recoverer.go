package middleware

import (
	"fmt"
	"net/http"

	"github.com/sharemeal/sharemeal-backend/api/responses"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
)

// Recoverer turns a handler panic into an INTERNAL_ERROR response.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil || rec == http.ErrAbortHandler {
					if rec != nil {
						panic(rec)
					}
					return
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic":  fmt.Sprint(rec),
						"method": r.Method,
						"path":   r.URL.Path,
					})
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
