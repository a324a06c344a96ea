package middleware

import (
	"github.com/gin-gonic/gin"

	"eventfin.io/eventfin/internal/domain"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
)

// RequireRole lets the request through only when the caller holds one of
// roles. It must run after JWTAuth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c.Request.Context())
		if !ok {
			abortWithAppError(c, apperrors.Unauthorized(apperrors.CodeUnauthorized, "not authenticated"))
			return
		}
		if !p.HasAnyRole(roles...) {
			abortWithAppError(c, apperrors.Forbidden(apperrors.CodeForbidden, "insufficient role"))
			return
		}
		c.Next()
	}
}
