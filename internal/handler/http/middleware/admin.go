package middleware

import (
	"net/http"

	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
	"github.com/moyuu-az/attendance-system/internal/pkg/jwt"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			response.HandleError(w, jwt.ErrInvalidToken)
			return
		}

		if !caller.IsAdmin {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
