package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "eventfin.io/eventfin/internal/pkg/errors"
	"eventfin.io/eventfin/internal/pkg/logger"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Params      map[string]interface{} `json:"params,omitempty"`
	FieldErrors []apperrors.FieldError `json:"field_errors,omitempty"`
}

func newErrorResponse(appErr *apperrors.AppError) ErrorResponse {
	return ErrorResponse{
		Code:        appErr.Code,
		Message:     appErr.Message,
		Params:      appErr.Params,
		FieldErrors: appErr.FieldErrors,
	}
}

// ErrorHandler renders errors added via c.Error(). AppErrors keep their
// code and status; anything else becomes a 500 without internal text.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := logger.FromContext(c.Request.Context())

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				log.Error("Request failed",
					zap.String("code", appErr.Code),
					zap.Int("status", appErr.HTTPStatus),
					zap.Error(appErr.Err),
				)
			} else {
				log.Warn("Request error",
					zap.String("code", appErr.Code),
					zap.String("message", appErr.Message),
					zap.Int("status", appErr.HTTPStatus),
				)
			}
			c.JSON(appErr.HTTPStatus, newErrorResponse(appErr))
			return
		}

		log.Error("Unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    apperrors.CodeInternal,
			Message: "An internal error occurred",
		})
	}
}

func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, newErrorResponse(appErr))
}
