package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/usecase"
)

// ListBudgetVersions handles GET /events/:eventId/budgets.
func (s *Server) ListBudgetVersions(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	versions, err := s.budgets.ListVersions(c.Request.Context(), p, eventID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if versions == nil {
		versions = []domain.BudgetVersion{}
	}
	c.JSON(http.StatusOK, versions)
}

// CreateBudgetVersion handles POST /events/:eventId/budgets.
func (s *Server) CreateBudgetVersion(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	var in usecase.CreateBudgetVersionInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := s.budgets.CreateVersion(c.Request.Context(), p, eventID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// GetBudgetVersion handles GET /budgets/:budgetId.
func (s *Server) GetBudgetVersion(c *gin.Context) {
	p, id, ok := principalAndID(c, "budgetId")
	if !ok {
		return
	}
	v, err := s.budgets.GetVersion(c.Request.Context(), p, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// UpdateBudgetVersion handles PUT /budgets/:budgetId.
func (s *Server) UpdateBudgetVersion(c *gin.Context) {
	p, id, ok := principalAndID(c, "budgetId")
	if !ok {
		return
	}
	var patch domain.BudgetVersionPatch
	if !bindJSON(c, &patch) {
		return
	}
	v, err := s.budgets.UpdateVersion(c.Request.Context(), p, id, patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// FinalizeBudgetVersion handles PUT /budgets/:budgetId/finalize.
func (s *Server) FinalizeBudgetVersion(c *gin.Context) {
	p, id, ok := principalAndID(c, "budgetId")
	if !ok {
		return
	}
	v, err := s.budgets.FinalizeVersion(c.Request.Context(), p, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// CloneBudgetVersion handles POST /budgets/:budgetId/clone.
func (s *Server) CloneBudgetVersion(c *gin.Context) {
	p, id, ok := principalAndID(c, "budgetId")
	if !ok {
		return
	}
	v, err := s.budgets.CloneVersion(c.Request.Context(), p, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// AddLineItem handles POST /budgets/:budgetId/line-items.
func (s *Server) AddLineItem(c *gin.Context) {
	p, id, ok := principalAndID(c, "budgetId")
	if !ok {
		return
	}
	var in domain.LineItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.budgets.AddLineItem(c.Request.Context(), p, id, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateLineItem handles PUT /budgets/line-items/:itemId.
func (s *Server) UpdateLineItem(c *gin.Context) {
	p, id, ok := principalAndID(c, "itemId")
	if !ok {
		return
	}
	var patch domain.LineItemPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.budgets.UpdateLineItem(c.Request.Context(), p, id, patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteLineItem handles DELETE /budgets/line-items/:itemId.
func (s *Server) DeleteLineItem(c *gin.Context) {
	p, id, ok := principalAndID(c, "itemId")
	if !ok {
		return
	}
	if err := s.budgets.DeleteLineItem(c.Request.Context(), p, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
