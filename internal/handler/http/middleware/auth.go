package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
	"github.com/moyuu-az/attendance-system/internal/pkg/jwt"
)

type callerKey struct{}

// Caller is the authenticated user of a request.
type Caller struct {
	UserID  string
	IsAdmin bool
}

// CallerFromContext returns the caller stored by AuthRequired.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// WithCaller stores c in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// AuthRequired accepts requests carrying a verified access token and puts the
// caller into the request context. It must run after jwtauth.Verifier.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			if token == nil {
				response.HandleError(w, jwt.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != jwt.TokenTypeAccess || !ok {
				response.HandleError(w, jwt.ErrInvalidToken)
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				response.HandleError(w, jwt.ErrInvalidToken)
				return
			}
			isAdmin, _ := claims["is_admin"].(bool)

			ctx := WithCaller(r.Context(), Caller{UserID: userID, IsAdmin: isAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}
