package middleware

import (
	"context"
	"errors"
	"net/http"

	gateAuth "github.com/MrEthical07/gateAuth"
)

// PrincipalFromContext returns the principal stored by [Authenticate].
func PrincipalFromContext(ctx context.Context) (*gateAuth.Principal, bool) {
	return gateAuth.PrincipalFromContext(ctx)
}

// Authenticate requires a valid bearer token. A missing or malformed
// Authorization header is 401 "Token no proporcionado"; a token that fails
// verification is 401 "Invalid Token".
func Authenticate(engine *gateAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			token, ok := gateAuth.BearerToken(r.Header)
			if !ok {
				writeError(w, http.StatusUnauthorized, msgTokenMissing)
				return
			}

			ctx := gateAuth.WithClientIP(r.Context(), gateAuth.ClientIP(r, engine.TrustProxy()))
			p, err := engine.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, gateAuth.ErrTokenMissing) {
					writeError(w, http.StatusUnauthorized, msgTokenMissing)
					return
				}
				writeError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(gateAuth.WithPrincipal(ctx, p)))
		})
	}
}
