package entity

import "context"

type actorKey struct{}

// WithActor tags the context with the identity performing subsequent
// operations. The actor lands on created records and emitted events.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in the context, or empty.
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
