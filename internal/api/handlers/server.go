// Package handlers implements the eventfin HTTP API on gin.
//
// Handlers translate requests into use case calls and report failures with
// c.Error; middleware.ErrorHandler renders them.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"eventfin.io/eventfin/internal/usecase"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the use cases behind every route.
type Server struct {
	budgets  *usecase.BudgetUseCase
	expenses *usecase.ExpenseUseCase
	insights *usecase.InsightUseCase
	inbox    *usecase.InboxUseCase
	db       Pinger
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Budgets  *usecase.BudgetUseCase
	Expenses *usecase.ExpenseUseCase
	Insights *usecase.InsightUseCase
	Inbox    *usecase.InboxUseCase
	DB       Pinger
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		budgets:  deps.Budgets,
		expenses: deps.Expenses,
		insights: deps.Insights,
		inbox:    deps.Inbox,
		db:       deps.DB,
	}
}

// RegisterPublicRoutes mounts the unauthenticated probes.
func (s *Server) RegisterPublicRoutes(r gin.IRoutes) {
	r.GET("/health/live", s.GetLiveness)
	r.GET("/health/ready", s.GetReadiness)
}

// RegisterRoutes mounts the authenticated API. writeGate guards every
// mutating route and the ROI/insight surface.
func (s *Server) RegisterRoutes(r gin.IRoutes, writeGate gin.HandlerFunc) {
	r.GET("/events/:eventId/budgets", s.ListBudgetVersions)
	r.POST("/events/:eventId/budgets", writeGate, s.CreateBudgetVersion)
	r.GET("/budgets/:budgetId", s.GetBudgetVersion)
	r.PUT("/budgets/:budgetId", writeGate, s.UpdateBudgetVersion)
	r.PUT("/budgets/:budgetId/finalize", writeGate, s.FinalizeBudgetVersion)
	r.POST("/budgets/:budgetId/clone", writeGate, s.CloneBudgetVersion)
	r.POST("/budgets/:budgetId/line-items", writeGate, s.AddLineItem)
	r.PUT("/budgets/line-items/:itemId", writeGate, s.UpdateLineItem)
	r.DELETE("/budgets/line-items/:itemId", writeGate, s.DeleteLineItem)

	r.GET("/events/:eventId/expenses", s.ListExpenses)
	r.POST("/events/:eventId/expenses", writeGate, s.CreateExpense)
	r.GET("/events/:eventId/actual-spend", s.GetActualSpend)
	r.GET("/expenses/:id", s.GetExpense)
	r.PUT("/expenses/:id", writeGate, s.UpdateExpense)
	r.DELETE("/expenses/:id", writeGate, s.DeleteExpense)
	r.POST("/expenses/:id/submit-approval", writeGate, s.SubmitExpenseForApproval)
	r.POST("/expenses/:id/approval", writeGate, s.DecideExpense)

	r.GET("/events/:eventId/roi", writeGate, s.GetROI)
	r.POST("/events/:eventId/roi/calculate", writeGate, s.CalculateROI)
	r.GET("/events/:eventId/insights", writeGate, s.ListInsights)
	r.POST("/events/:eventId/insights", writeGate, s.GenerateInsights)

	r.GET("/notifications", s.ListNotifications)
}
