package api

import (
	"context"

	"yardgate/internal/actor"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

func WithActor(ctx context.Context, a actor.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

func ActorFromContext(ctx context.Context) (actor.Actor, bool) {
	v := ctx.Value(ctxKeyActor)
	if v == nil {
		return actor.Actor{}, false
	}
	a, ok := v.(actor.Actor)
	return a, ok
}
