package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventfin.io/eventfin/internal/domain"
)

// ListNotifications handles GET /notifications?limit=.
func (s *Server) ListNotifications(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	out, err := s.inbox.List(c.Request.Context(), p, parseLimit(c.Query("limit")))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if out == nil {
		out = []domain.Notification{}
	}
	c.JSON(http.StatusOK, out)
}
