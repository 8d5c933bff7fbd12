package credit

import "errors"

var (
	// ErrStudentNotFound indicates the student doesn't exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrOrgNotFound indicates the student's organization doesn't exist.
	ErrOrgNotFound = errors.New("organization not found")
	// ErrDashboardDisabled indicates the student's dashboard access is off.
	ErrDashboardDisabled = errors.New("dashboard disabled for student")
	// ErrSelfStartDisabled indicates the student cannot start their own interviews.
	ErrSelfStartDisabled = errors.New("self-start disabled for student")
	// ErrNoCreditsRemaining indicates the student's allocation is exhausted.
	ErrNoCreditsRemaining = errors.New("no interview credits remaining")
	// ErrQuotaExceeded indicates the organization quota is exhausted.
	ErrQuotaExceeded = errors.New("organization quota exceeded")
	// ErrResourceConflict indicates the reservation lost every transaction
	// attempt to concurrent writers. Transient; the caller may retry.
	ErrResourceConflict = errors.New("resource conflict, retry the request")
	// ErrNotRestorable indicates a refund was requested for an interview that
	// isn't in a refundable state.
	ErrNotRestorable = errors.New("interview credit not restorable")
	// ErrInvalidInput indicates invalid reservation input.
	ErrInvalidInput = errors.New("invalid reservation input")
)
