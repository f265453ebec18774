package domain

const (
	RoleStudent = "student"
	RoleCoach   = "coach"
	RoleAdmin   = "admin"
)

// Withdrawal request lifecycle. pending is the only state an admin can act
// on; processing belongs to requests routed through the payout gateway.
const (
	WithdrawalPending    = "pending"
	WithdrawalProcessing = "processing"
	WithdrawalApproved   = "approved"
	WithdrawalCompleted  = "completed"
	WithdrawalRejected   = "rejected"
	WithdrawalFailed     = "failed"
)

// Gateway-facing transaction statuses.
const (
	TxPending = "pending"
	TxSuccess = "success"
	TxFailed  = "failed"
)

// Ledger entry types.
const (
	LedgerPurchase      = "purchase"
	LedgerCoursePayment = "course_payment"
	LedgerCourseEarning = "course_earning"
	LedgerWithdrawal    = "withdrawal"
	LedgerRefund        = "refund"
)

const (
	CourseDraft     = "draft"
	CoursePublished = "published"
	CourseArchived  = "archived"
)

const TransactionModeCreditPurchase = "credit_purchase"

const EnrollmentEnrolled = "enrolled"

// WithdrawalTerminal reports whether a request can no longer change state.
func WithdrawalTerminal(status string) bool {
	switch status {
	case WithdrawalApproved, WithdrawalCompleted, WithdrawalRejected, WithdrawalFailed:
		return true
	}
	return false
}

// ValidRole reports whether role is one the platform knows.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleCoach, RoleAdmin:
		return true
	}
	return false
}
