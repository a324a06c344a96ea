// Package middleware provides the HTTP middleware chain of the eventfin API.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/pkg/logger"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header for request tracing.
	RequestIDHeader = "X-Request-ID"

	ctxKeyRequestID contextKey = "request_id"
	ctxKeyPrincipal contextKey = "principal"
)

// RequestID injects a unique request ID into the context, the response
// header and the request-scoped logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)

		ctx := context.WithValue(c.Request.Context(), ctxKeyRequestID, rid)
		ctx = logger.WithContext(ctx, logger.With(zap.String("request_id", rid)))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// SetPrincipal stores the authenticated caller in ctx and tags the
// request-scoped logger with it.
func SetPrincipal(ctx context.Context, p domain.Principal) context.Context {
	ctx = context.WithValue(ctx, ctxKeyPrincipal, p)
	l := logger.FromContext(ctx).With(
		zap.String("user_id", p.UserID.String()),
		zap.String("organization_id", p.OrganizationID.String()),
	)
	return logger.WithContext(ctx, l)
}

// PrincipalFrom extracts the authenticated caller from ctx.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(domain.Principal)
	return p, ok
}
