package middleware

import (
	"net/http"
	"strings"

	gateAuth "github.com/MrEthical07/gateAuth"
)

// RequireRoles admits the request only if the authenticated principal holds one
// of roles. With no roles any principal with a known role passes. It must run
// after [Authenticate].
func RequireRoles(engine *gateAuth.Engine, roles ...gateAuth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := gateAuth.PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, msgTokenMissing)
				return
			}
			if err := engine.AuthorizeContext(r.Context(), p, roles...); err != nil {
				writeError(w, http.StatusForbidden, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminPaths requires RoleAdmin or RoleSuperAdmin for any request whose URI
// contains the configured marker. It is a no-op when the guard is disabled.
// Requests without a principal on a marked URI are rejected with 403.
func AdminPaths(engine *gateAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard := engine.AdminPathGuard()
			if !guard.Enabled || !strings.Contains(r.URL.RequestURI(), guard.Marker) {
				next.ServeHTTP(w, r)
				return
			}

			p, _ := gateAuth.PrincipalFromContext(r.Context())
			if p == nil {
				writeError(w, http.StatusForbidden, msgForbidden)
				return
			}
			if err := engine.AuthorizeContext(r.Context(), p, gateAuth.RoleSuperAdmin, gateAuth.RoleAdmin); err != nil {
				writeError(w, http.StatusForbidden, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
