package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/uniwork/uniwork-backend-go/internal/domain/user"
	"github.com/uniwork/uniwork-backend-go/internal/handler/http/response"
)

// AuthRequired rejects requests whose verified token is missing, is not an
// access token, or carries no user_id.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != "access" {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		if userID, ok := claims["user_id"].(string); !ok || userID == "" {
			response.HandleError(w, user.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r)
	})
}
