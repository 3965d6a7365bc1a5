package identity

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the identity an operation runs on behalf of
type Actor struct {
	ID        uuid.UUID
	Username  string
	Superuser bool
	Active    bool
}

// Anonymous returns the actor used when no user could be resolved
func Anonymous() Actor {
	return Actor{}
}

// IsAuthenticated reports whether the actor is a known, active user
func (a Actor) IsAuthenticated() bool {
	return a.ID != uuid.Nil && a.Active
}

// IsPrivileged reports whether the actor may act on every record regardless of ownership
func (a Actor) IsPrivileged() bool {
	return a.IsAuthenticated() && a.Superuser
}

// OwnerScope returns the creator restriction that applies to the actor:
// nil for privileged actors, the actor's own ID otherwise.
func (a Actor) OwnerScope() *uuid.UUID {
	if a.IsPrivileged() {
		return nil
	}
	id := a.ID
	return &id
}

type actorKey struct{}

// WithActor stores the actor in ctx
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, or Anonymous
func ActorFromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok {
		return actor
	}
	return Anonymous()
}
