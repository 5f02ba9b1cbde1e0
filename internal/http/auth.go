package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"

	"hostelhub-backend-go/internal/services"
)

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxEmail  contextKey = "email"
	ctxRoles  contextKey = "roles"
)

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			claims, err := tokenService.ParseAccessToken(tokenStr)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func withClaims(ctx context.Context, claims *services.Claims) context.Context {
	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	ctx = context.WithValue(ctx, ctxUserID, claims.UserID())
	ctx = context.WithValue(ctx, ctxEmail, claims.Email)
	return context.WithValue(ctx, ctxRoles, roles)
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}

func CurrentEmail(r *http.Request) string {
	if value, ok := r.Context().Value(ctxEmail).(string); ok {
		return value
	}
	return ""
}

func CurrentRoles(r *http.Request) []string {
	if value, ok := r.Context().Value(ctxRoles).([]string); ok {
		return value
	}
	return nil
}

func hasRole(roles []string, role string) bool {
	role = strings.ToUpper(role)
	for _, candidate := range roles {
		if strings.ToUpper(candidate) == role {
			return true
		}
	}
	return false
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

func RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current := CurrentRoles(r)
			for _, role := range roles {
				if hasRole(current, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteError(w, http.StatusForbidden, "Not allowed")
		})
	}
}

// PermissionChecker answers whether roles may perform action on module.
type PermissionChecker func(roles []string, module, action string) (bool, error)

// RequirePermission guards a route with the role permission matrix.
func RequirePermission(check PermissionChecker, module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := check(CurrentRoles(r), module, action)
			if err != nil {
				log.Printf("permission check %s/%s: %v", module, action, err)
				WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !allowed {
				WriteError(w, http.StatusForbidden, "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actionForMethod maps an HTTP verb onto a permission action.
func actionForMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return services.ActionRead
	case http.MethodDelete:
		return services.ActionDelete
	case http.MethodPut, http.MethodPatch:
		return services.ActionEdit
	}
	return services.ActionWrite
}

// RequireModule is RequirePermission with the action taken from the verb.
func RequireModule(check PermissionChecker, module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			RequirePermission(check, module, actionForMethod(r.Method))(next).ServeHTTP(w, r)
		})
	}
}
