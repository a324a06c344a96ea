package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExpenseStatus_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from ExpenseStatus
		to   ExpenseStatus
		want bool
	}{
		{ExpenseStatusPending, ExpenseStatusUnderReview, true},
		{ExpenseStatusPending, ExpenseStatusApproved, false},
		{ExpenseStatusUnderReview, ExpenseStatusApproved, true},
		{ExpenseStatusUnderReview, ExpenseStatusRejected, true},
		{ExpenseStatusUnderReview, ExpenseStatusPending, false},
		{ExpenseStatusApproved, ExpenseStatusRejected, false},
		{ExpenseStatusRejected, ExpenseStatusUnderReview, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestExpenseStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	require.False(t, ExpenseStatusPending.IsTerminal())
	require.False(t, ExpenseStatusUnderReview.IsTerminal())
	require.True(t, ExpenseStatusApproved.IsTerminal())
	require.True(t, ExpenseStatusRejected.IsTerminal())
	require.False(t, ExpenseStatus("paid").Valid())
}

func TestApprovalAction(t *testing.T) {
	t.Parallel()

	require.Equal(t, ExpenseStatusApproved, ApprovalActionApproved.TargetStatus())
	require.Equal(t, ExpenseStatusRejected, ApprovalActionRejected.TargetStatus())
	require.False(t, ApprovalAction("maybe").Valid())
}

func TestExpenseInputAndPatch(t *testing.T) {
	t.Parallel()

	require.NoError(t, ExpenseInput{Title: "DJ", Amount: decimal.Zero}.Validate())
	require.Error(t, ExpenseInput{Title: "DJ", Amount: decimal.NewFromInt(-1)}.Validate())
	require.Error(t, ExpenseInput{Amount: decimal.NewFromInt(5)}.Validate())

	amount := decimal.NewFromInt(42)
	title := "Sound"
	e := ExpensePatch{Title: &title, Amount: &amount}.Apply(Expense{ID: uuid.New(), Title: "DJ", Status: ExpenseStatusPending})
	require.Equal(t, "Sound", e.Title)
	require.True(t, amount.Equal(e.Amount))
	require.Equal(t, ExpenseStatusPending, e.Status)

	neg := decimal.NewFromInt(-3)
	require.Error(t, ExpensePatch{Amount: &neg}.Validate())

	var ve ValidationError
	require.NoError(t, ExpenseInput{Title: "DJ", Amount: decimal.RequireFromString("999.99")}.Validate())
	require.ErrorAs(t, ExpenseInput{Title: "DJ", Amount: decimal.RequireFromString("999.995")}.Validate(), &ve)
	require.Equal(t, "amount", ve.Field)
	fine := decimal.RequireFromString("0.001")
	require.Error(t, ExpensePatch{Amount: &fine}.Validate())
}

func TestPrincipal(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	p := Principal{UserID: uuid.New(), OrganizationID: org, Role: RoleFinance}
	require.True(t, p.HasAnyRole(FinanceRoles...))
	require.False(t, p.HasAnyRole(RoleAdmin))
	require.True(t, p.CanAccess(org))
	require.False(t, p.CanAccess(uuid.New()))

	_, err := ParseRole("owner")
	require.Error(t, err)
	r, err := ParseRole("manager")
	require.NoError(t, err)
	require.Equal(t, RoleManager, r)
}
