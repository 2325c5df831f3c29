// Package usercontext carries the authenticated caller through the request
// context. Identity is established upstream (API gateway validates the bearer
// token); this module only consumes the resolved claims.
package usercontext

import "context"

type userKey struct{}

// UserContext is the resolved identity of the caller.
type UserContext struct {
	UserID       int64
	KeycloakGUID string
	LoginSource  string
	Roles        []string
}

const (
	RoleStaff         = "staff"
	RoleExternalStaff = "external_staff"
	RoleSystem        = "system"
)

func WithUser(ctx context.Context, user UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func FromContext(ctx context.Context) (UserContext, bool) {
	if ctx == nil {
		return UserContext{}, false
	}
	user, ok := ctx.Value(userKey{}).(UserContext)
	return user, ok
}

func (u UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u UserContext) IsStaff() bool { return u.HasRole(RoleStaff) }

func (u UserContext) IsExternalStaff() bool { return u.HasRole(RoleExternalStaff) }

func (u UserContext) IsSystem() bool { return u.HasRole(RoleSystem) }
