package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/uniwork/uniwork-backend-go/internal/domain/user"
	"github.com/uniwork/uniwork-backend-go/internal/handler/http/response"
)

// RequireCompany requires a company_id claim
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		companyID, ok := claims["company_id"].(string)
		if !ok || companyID == "" {
			response.HandleError(w, user.ErrCompanyIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, fmt.Errorf("%w: required '%s'", user.ErrInsufficientPermissions, permission))
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				response.HandleError(w, fmt.Errorf("%w: required '%s'", user.ErrInsufficientPermissions, permission))
				return
			}

			role := user.Role(roleStr)
			if !user.HasPermission(role, permission) {
				slog.Debug("Permission denied", "permission", permission, "role", role)
				response.HandleError(w, fmt.Errorf("%w: required '%s', but user role is '%s'", user.ErrInsufficientPermissions, permission, role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
