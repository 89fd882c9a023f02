package middleware

import (
	"context"
	"net/http"

	"github.com/openhrm/hrm/internal/domain/auth"
	"github.com/openhrm/hrm/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// StaticPermissions answers permission checks from the built-in role table
// using the role name carried in the token.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	user, ok := GetUser(ctx)
	if !ok {
		return false, nil
	}
	return auth.RoleHas(user.RoleName, permission), nil
}

func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !checkPermission(w, r, store, permission) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission lets the request through if the caller holds at least
// one of the listed permissions.
func RequireAnyPermission(store PermissionStore, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			for _, perm := range permissions {
				allowed, err := store.HasPermission(r.Context(), user.RoleID, perm)
				if err != nil {
					api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(r.Context()))
					return
				}
				if allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
		})
	}
}

func checkPermission(w http.ResponseWriter, r *http.Request, store PermissionStore, permission string) bool {
	user, ok := GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
		return false
	}

	allowed, err := store.HasPermission(r.Context(), user.RoleID, permission)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(r.Context()))
		return false
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
		return false
	}
	return true
}
