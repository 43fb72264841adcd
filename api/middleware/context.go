package middleware

import (
	"context"

	"github.com/angelmondragon/servicedesk-backend/pkg/types"
)

type contextKey string

const (
	ctxActor    contextKey = "actor"
	ctxAccessID contextKey = "access_id"
)

// ActorFromContext returns the authenticated caller, or a zero Actor on public routes.
func ActorFromContext(ctx context.Context) types.Actor {
	if ctx == nil {
		return types.Actor{}
	}
	if v, ok := ctx.Value(ctxActor).(types.Actor); ok {
		return v
	}
	return types.Actor{}
}

// AccessIDFromContext returns the session id (JWT jti) of the current request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the caller into the context.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}
