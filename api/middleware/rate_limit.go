package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sharemeal/sharemeal-backend/api/responses"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
)

// RateLimitStore counts requests per key over a fixed window.
type RateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// RateLimitPolicy is a fixed-window request budget per client IP.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

// NewRateLimitPolicy builds a policy with the supplied window and limit.
func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "api"
	}
	return p.name
}

func (p RateLimitPolicy) scope(ip string) string {
	return fmt.Sprintf("%s:ip:%s", p.normalizedName(), ip)
}

// RateLimit enforces the per-IP counter. Preflight requests are never counted.
// Without a store the middleware is a pass-through.
func RateLimit(policy RateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}
			count, err := store.IncrWithTTL(ctx, store.RateLimitKey(policy.scope(ip)), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if count > int64(policy.limit) {
				respondRateLimited(ctx, logg, w, policy, ip, count)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, ip string, count int64) {
	retryAfter := int(policy.window.Seconds())
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"policy":         policy.normalizedName(),
			"ip":             ip,
			"attempts":       count,
			"limit":          policy.limit,
			"window_seconds": retryAfter,
		})
		logg.Warn(logCtx, "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", fmt.Sprint(retryAfter))
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, please try again later").
		WithDetails(map[string]any{"retry_after_seconds": retryAfter})
	responses.WriteError(ctx, nil, w, err)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
