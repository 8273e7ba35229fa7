package auth

import (
	"context"

	"github.com/google/uuid"
)

// The authenticated account id travels through the request context under an
// unexported key; only this package can set it.
type accountIDKey struct{}

func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, accountIDKey{}, id)
}

// UserIDFromContext reports the account id placed by the auth middleware.
// The second return is false on unauthenticated requests.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDKey{}).(uuid.UUID)
	return id, ok
}
