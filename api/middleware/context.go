package middleware

import (
	"context"

	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

// Identity is the authenticated caller. ID is the customer id for customers
// and the staff id for staff and admins.
type Identity struct {
	ID   uint64
	Role enums.ActorRole
	Name string
}

type identityKey struct{}

// WithIdentity stores the caller on ctx.
func WithIdentity(ctx context.Context, userID uint64, role enums.ActorRole, name string) context.Context {
	return context.WithValue(ctx, identityKey{}, Identity{ID: userID, Role: role, Name: name})
}

// IdentityFromContext reports false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) uint64 {
	id, _ := IdentityFromContext(ctx)
	return id.ID
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	id, _ := IdentityFromContext(ctx)
	return id.Role
}

func UserNameFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Name
}
