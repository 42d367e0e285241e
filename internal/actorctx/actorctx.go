// Package actorctx carries the authenticated user on a context.Context so that
// code below the HTTP layer (logging, stores) can see who is acting.
package actorctx

import "context"

type ctxKey struct{}

type Actor struct {
	UserID string
	Email  string
}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && a.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	a, ok := From(ctx)
	return a.UserID, ok
}
