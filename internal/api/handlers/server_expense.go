package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/usecase"
)

// ActualSpend is the body of GET /events/:eventId/actual-spend.
type ActualSpend struct {
	EventID     uuid.UUID       `json:"eventId"`
	ActualSpend decimal.Decimal `json:"actualSpend"`
}

// ListExpenses handles GET /events/:eventId/expenses?status=.
func (s *Server) ListExpenses(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	var filter domain.ExpenseFilter
	if raw := c.Query("status"); raw != "" {
		status := domain.ExpenseStatus(raw)
		filter.Status = &status
	}
	out, err := s.expenses.ListExpenses(c.Request.Context(), p, eventID, filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if out == nil {
		out = []domain.Expense{}
	}
	c.JSON(http.StatusOK, out)
}

// CreateExpense handles POST /events/:eventId/expenses. Large expenses come
// back already under_review.
func (s *Server) CreateExpense(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	var in domain.ExpenseInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := s.expenses.CreateExpense(c.Request.Context(), p, eventID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GetActualSpend handles GET /events/:eventId/actual-spend.
func (s *Server) GetActualSpend(c *gin.Context) {
	p, eventID, ok := principalAndID(c, "eventId")
	if !ok {
		return
	}
	total, err := s.expenses.CalculateEventActualSpend(c.Request.Context(), p, eventID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ActualSpend{EventID: eventID, ActualSpend: total})
}

// GetExpense handles GET /expenses/:id.
func (s *Server) GetExpense(c *gin.Context) {
	p, id, ok := principalAndID(c, "id")
	if !ok {
		return
	}
	e, err := s.expenses.GetExpense(c.Request.Context(), p, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// UpdateExpense handles PUT /expenses/:id.
func (s *Server) UpdateExpense(c *gin.Context) {
	p, id, ok := principalAndID(c, "id")
	if !ok {
		return
	}
	var patch domain.ExpensePatch
	if !bindJSON(c, &patch) {
		return
	}
	e, err := s.expenses.UpdateExpense(c.Request.Context(), p, id, patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteExpense handles DELETE /expenses/:id.
func (s *Server) DeleteExpense(c *gin.Context) {
	p, id, ok := principalAndID(c, "id")
	if !ok {
		return
	}
	if err := s.expenses.DeleteExpense(c.Request.Context(), p, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitExpenseForApproval handles POST /expenses/:id/submit-approval.
func (s *Server) SubmitExpenseForApproval(c *gin.Context) {
	p, id, ok := principalAndID(c, "id")
	if !ok {
		return
	}
	e, err := s.expenses.SubmitForApproval(c.Request.Context(), p, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DecideExpense handles POST /expenses/:id/approval.
func (s *Server) DecideExpense(c *gin.Context) {
	p, id, ok := principalAndID(c, "id")
	if !ok {
		return
	}
	var in usecase.ApprovalInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := s.expenses.HandleApproval(c.Request.Context(), p, id, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, e)
}
