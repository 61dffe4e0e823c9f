package middleware

import (
	"context"

	"github.com/sharemeal/sharemeal-backend/internal/access"
)

type contextKey string

const (
	ctxActor   contextKey = "actor"
	ctxService contextKey = "service_caller"
)

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor access.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// ActorFromContext returns the actor seeded by Auth; ok is false on
// unauthenticated requests.
func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	if ctx == nil {
		return access.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(access.Actor)
	return actor, ok
}

// IsServiceCaller reports whether the request passed the service token check.
func IsServiceCaller(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(ctxService).(bool)
	return v
}

func withServiceCaller(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxService, true)
}
