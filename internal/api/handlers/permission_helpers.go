package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventfin.io/eventfin/internal/api/middleware"
	"eventfin.io/eventfin/internal/domain"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
)

// requirePrincipal returns the authenticated caller. On failure it records
// a 401 and the handler must return.
func requirePrincipal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c.Request.Context())
	if !ok {
		_ = c.Error(apperrors.Unauthorized(apperrors.CodeUnauthorized, "not authenticated"))
		return domain.Principal{}, false
	}
	return p, true
}

// uuidParam parses a path parameter. On failure it records a 400.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperrors.Validation(name, name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body into dst. On failure it records a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid request body", 400))
		return false
	}
	return true
}

// principalAndID combines the two checks every item route starts with.
func principalAndID(c *gin.Context, param string) (domain.Principal, uuid.UUID, bool) {
	p, ok := requirePrincipal(c)
	if !ok {
		return p, uuid.Nil, false
	}
	id, ok := uuidParam(c, param)
	return p, id, ok
}
