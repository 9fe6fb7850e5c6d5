package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/agendafacil/booking-api/pkg/errors"
)

// Actor is the authenticated identity threaded through every
// operation. It is attached to the request context by the auth
// middleware after the user record has been re-read, so IsAdmin is
// always server-asserted.
type Actor struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

type contextKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// FromContext extracts the actor, if any.
func FromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(*Actor)
	return actor, ok && actor != nil
}

// Authenticated fails with not-authorized when there is no session.
func Authenticated(ctx context.Context) (*Actor, error) {
	actor, ok := FromContext(ctx)
	if !ok {
		return nil, errors.NotAuthorized("authentication required")
	}
	return actor, nil
}

// OwnerOrAdmin requires a session whose identity matches owner, or
// the admin flag. The two failure modes stay distinct: no session is
// not-authorized, a session without rights is forbidden.
func OwnerOrAdmin(ctx context.Context, owner uuid.UUID) (*Actor, error) {
	actor, err := Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if actor.UserID != owner && !actor.IsAdmin {
		return nil, errors.Forbidden("permission denied")
	}
	return actor, nil
}

// AdminOnly requires a session with the admin flag.
func AdminOnly(ctx context.Context) (*Actor, error) {
	actor, err := Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, errors.Forbidden("restricted to administrators")
	}
	return actor, nil
}
