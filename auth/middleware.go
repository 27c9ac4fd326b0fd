package auth

import (
	"context"
	"net/http"
)

type contextKey string

const claimsContextKey contextKey = "session"

// RequireSession rejects requests without a valid session token with 401.
// On success the verified claims are attached to the request context.
func RequireSession(tokens Tokens, cookies CookieConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookies.read(r)
		if token == "" {
			encodeResult(w, fail(ErrAuthentication, msgUnauthorized), http.StatusOK)
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			encodeResult(w, fail(ErrAuthentication, msgUnauthorized), http.StatusOK)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok && c != nil
}
