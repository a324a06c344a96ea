package errors

// Error codes are stable identifiers; clients branch on these, not on messages.

// Lookup error codes.
const (
	CodeEventNotFound         = "EVENT_NOT_FOUND"
	CodeBudgetVersionNotFound = "BUDGET_VERSION_NOT_FOUND"
	CodeLineItemNotFound      = "LINE_ITEM_NOT_FOUND"
	CodeExpenseNotFound       = "EXPENSE_NOT_FOUND"
	CodeROINotFound           = "ROI_NOT_FOUND"
)

// Ownership error codes.
const (
	CodeOrganizationForbidden = "ORGANIZATION_FORBIDDEN"
	CodeForbidden             = "FORBIDDEN"
)

// Budget error codes.
const (
	CodeBudgetVersionExists = "BUDGET_VERSION_EXISTS"
)

// Workflow error codes.
const (
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeNoApproverAvailable    = "NO_APPROVER_AVAILABLE"
	CodeApproverMismatch       = "APPROVER_MISMATCH"
	CodeExpenseFinalized       = "EXPENSE_FINALIZED"
)

// Auth error codes.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Generic error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrEventNotFound reports a missing event.
func ErrEventNotFound() *AppError {
	return NotFound(CodeEventNotFound, "event not found")
}

// ErrBudgetVersionNotFound reports a missing budget version.
func ErrBudgetVersionNotFound() *AppError {
	return NotFound(CodeBudgetVersionNotFound, "budget version not found")
}

// ErrLineItemNotFound reports a missing budget line item.
func ErrLineItemNotFound() *AppError {
	return NotFound(CodeLineItemNotFound, "budget line item not found")
}

// ErrExpenseNotFound reports a missing expense.
func ErrExpenseNotFound() *AppError {
	return NotFound(CodeExpenseNotFound, "expense not found")
}

// ErrOrganizationForbidden reports access to another organization's data.
func ErrOrganizationForbidden() *AppError {
	return Forbidden(CodeOrganizationForbidden, "resource belongs to another organization")
}

// ErrExpenseFinalized reports an attempt to modify an approved or rejected expense.
func ErrExpenseFinalized() *AppError {
	return BadRequest(CodeExpenseFinalized, "cannot modify a finalized expense")
}

// ErrInvalidTransition reports a status transition the state machine does not allow.
func ErrInvalidTransition(from, to string) *AppError {
	return BadRequest(CodeInvalidStateTransition, "expense cannot move from "+from+" to "+to).
		WithParams(map[string]interface{}{"from": from, "to": to})
}
