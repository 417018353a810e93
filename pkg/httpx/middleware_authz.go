package httpx

import (
	"net/http"
	"slices"
)

// RequireScopes rejects requests whose verified token is missing any of the
// listed scopes. Must run after AuthnMiddleware.
func RequireScopes(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := scopesFromCtx(r.Context())
			for _, want := range required {
				if !slices.Contains(have, want) {
					WriteJSON(w, http.StatusForbidden, map[string]string{
						"error":             "insufficient_scope",
						"error_description": "token is missing required scope: " + want,
					})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
