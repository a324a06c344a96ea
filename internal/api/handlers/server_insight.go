package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventfin.io/eventfin/internal/domain"
)

// GetROI handles GET /events/:eventId/roi.
func (s *Server) GetROI(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	m, err := s.insights.GetROI(c.Request.Context(), p, eventID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// CalculateROI handles POST /events/:eventId/roi/calculate.
func (s *Server) CalculateROI(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	m, err := s.insights.CalculateROI(c.Request.Context(), p, eventID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ListInsights handles GET /events/:eventId/insights.
func (s *Server) ListInsights(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	out, err := s.insights.ListInsights(c.Request.Context(), p, eventID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if out == nil {
		out = []domain.Insight{}
	}
	c.JSON(http.StatusOK, out)
}

// GenerateInsights handles POST /events/:eventId/insights.
func (s *Server) GenerateInsights(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	out, err := s.insights.GenerateInsights(c.Request.Context(), p, eventID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
