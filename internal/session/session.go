package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/prostore/storefront/internal/errors"
)

// CallerIdentity identifies who is calling a workflow: an authenticated user,
// an anonymous browser session, or both. SessionCartID is always set by the
// session middleware; UserID is set only when a valid bearer token is present.
type CallerIdentity struct {
	UserID        uuid.UUID
	SessionCartID uuid.UUID
	Authenticated bool
}

type identityKey struct{}

func AttachToContext(c context.Context, identity CallerIdentity) context.Context {
	return context.WithValue(c, identityKey{}, identity)
}

func FromContext(c context.Context) (CallerIdentity, error) {
	identity, ok := c.Value(identityKey{}).(CallerIdentity)
	if !ok {
		return CallerIdentity{}, errors.ErrEmptySubject
	}
	return identity, nil
}
