package middleware

import (
	"net/http"
	"strings"

	"github.com/bodyshop-platform/api/internal/identity"
)

type AuthMiddleware struct {
	Verifier identity.Verifier
}

func (m AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}

		user, err := m.Verifier.Verify(r.Context(), token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "Token is invalid", nil)
			return
		}

		ctx := WithActor(r.Context(), Actor{
			UserID: user.ID,
			Email:  user.Email,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
