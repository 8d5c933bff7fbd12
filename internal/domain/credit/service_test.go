package credit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillgate/interviewd/internal/domain/credit"
	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/domain/org"
	"github.com/skillgate/interviewd/internal/domain/student"
	"github.com/skillgate/interviewd/internal/repository"
	"github.com/skillgate/interviewd/internal/repository/mocks"
)

const tenantID = "tenant1"

func testStudent(remaining int) *student.Student {
	return &student.Student{
		ID:               "stu1",
		TenantID:         tenantID,
		OrgID:            "org1",
		CreditsAllocated: 5,
		CreditsUsed:      5 - remaining,
		CanSelfStart:     true,
		DashboardEnabled: true,
	}
}

func testOrg() *org.Organization {
	return &org.Organization{ID: "org1", TenantID: tenantID, QuotaLimit: 10, QuotaUsed: 3}
}

func newLedger() *mocks.Ledger {
	return &mocks.Ledger{Tx: &mocks.Tx{}}
}

func TestReserve_Success(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	ledger.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(2), nil)
	ledger.On("GetOrganization", ctx, tenantID, "org1").Return(testOrg(), nil)
	ledger.On("RunTransaction", ctx).Return(nil)

	ledger.Tx.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(2), nil)
	ledger.Tx.On("GetOrganization", ctx, tenantID, "org1").Return(testOrg(), nil)
	ledger.Tx.On("CreateInterview", ctx, mock.Anything).Return(nil)
	ledger.Tx.On("UpdateStudentCredits", ctx, tenantID, "stu1", 4).Return(nil)
	ledger.Tx.On("UpdateOrgCounters", ctx, tenantID, "org1", 3, 1).Return(nil)
	ledger.Tx.On("AppendHistory", ctx, mock.Anything).Return(nil)

	svc := credit.NewService(ledger, nil, 3)
	iv, err := svc.Reserve(ctx, tenantID, credit.ReserveRequest{
		StudentID:     "stu1",
		Route:         "dashboard",
		SelfInitiated: true,
	})
	require.NoError(t, err)
	require.Equal(t, interview.StatusScheduled, iv.Status)
	require.Equal(t, interview.SourceStudent, iv.CreditSource)

	// Quota untouched for a student-funded reservation; only the separate
	// student counter moves.
	ledger.Tx.AssertCalled(t, "UpdateOrgCounters", ctx, tenantID, "org1", 3, 1)

	entry := ledger.Tx.Calls[len(ledger.Tx.Calls)-1].Arguments.Get(1).(*credit.HistoryEntry)
	require.Equal(t, credit.TypeUsed, entry.Type)
	require.Equal(t, 1, entry.Amount)
	require.Equal(t, 2, entry.BalanceBefore)
	require.Equal(t, 1, entry.BalanceAfter)
	require.Equal(t, iv.ID, entry.InterviewID)
}

func TestReserve_NoCreditsRemaining(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	ledger.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(0), nil)
	ledger.On("GetOrganization", ctx, tenantID, "org1").Return(testOrg(), nil)

	svc := credit.NewService(ledger, nil, 3)
	_, err := svc.Reserve(ctx, tenantID, credit.ReserveRequest{StudentID: "stu1", SelfInitiated: true})
	require.ErrorIs(t, err, credit.ErrNoCreditsRemaining)

	// Fast-fail means no transaction was even opened: zero side effects.
	ledger.AssertNotCalled(t, "RunTransaction", ctx)
}

func TestReserve_LastCreditDrainedConcurrently(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	// Precheck still sees one credit, but the transactional re-read finds
	// a concurrent caller already spent it.
	ledger.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(1), nil)
	ledger.On("GetOrganization", ctx, tenantID, "org1").Return(testOrg(), nil)
	ledger.On("RunTransaction", ctx).Return(nil)
	ledger.Tx.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(0), nil)
	ledger.Tx.On("GetOrganization", ctx, tenantID, "org1").Return(testOrg(), nil)

	svc := credit.NewService(ledger, nil, 3)
	_, err := svc.Reserve(ctx, tenantID, credit.ReserveRequest{StudentID: "stu1", SelfInitiated: true})
	require.ErrorIs(t, err, credit.ErrNoCreditsRemaining)

	ledger.Tx.AssertNotCalled(t, "CreateInterview", ctx, mock.Anything)
	ledger.Tx.AssertNotCalled(t, "AppendHistory", ctx, mock.Anything)
}

func TestReserve_Forbidden(t *testing.T) {
	ctx := context.Background()

	noSelfStart := testStudent(2)
	noSelfStart.CanSelfStart = false

	ledger := newLedger()
	ledger.On("GetStudent", ctx, tenantID, "stu1").Return(noSelfStart, nil)

	svc := credit.NewService(ledger, nil, 3)
	_, err := svc.Reserve(ctx, tenantID, credit.ReserveRequest{StudentID: "stu1", SelfInitiated: true})
	require.ErrorIs(t, err, credit.ErrSelfStartDisabled)

	disabled := testStudent(2)
	disabled.DashboardEnabled = false

	ledger = newLedger()
	ledger.On("GetStudent", ctx, tenantID, "stu1").Return(disabled, nil)

	svc = credit.NewService(ledger, nil, 3)
	_, err = svc.Reserve(ctx, tenantID, credit.ReserveRequest{StudentID: "stu1", SelfInitiated: true})
	require.ErrorIs(t, err, credit.ErrDashboardDisabled)
}

func TestReserve_StudentNotFound(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()
	ledger.On("GetStudent", ctx, tenantID, "ghost").Return(nil, repository.ErrNotFound)

	svc := credit.NewService(ledger, nil, 3)
	_, err := svc.Reserve(ctx, tenantID, credit.ReserveRequest{StudentID: "ghost", SelfInitiated: true})
	require.ErrorIs(t, err, credit.ErrStudentNotFound)
}

func TestReserve_OrgInitiated_ChargesQuota(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	ledger.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(0), nil)
	ledger.On("GetOrganization", ctx, tenantID, "org1").Return(testOrg(), nil)
	ledger.On("RunTransaction", ctx).Return(nil)

	ledger.Tx.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(0), nil)
	ledger.Tx.On("GetOrganization", ctx, tenantID, "org1").Return(testOrg(), nil)
	ledger.Tx.On("CreateInterview", ctx, mock.Anything).Return(nil)
	ledger.Tx.On("UpdateOrgCounters", ctx, tenantID, "org1", 4, 0).Return(nil)
	ledger.Tx.On("AppendHistory", ctx, mock.Anything).Return(nil)

	// Org-initiated reservations work even with zero student credits left.
	svc := credit.NewService(ledger, nil, 3)
	iv, err := svc.Reserve(ctx, tenantID, credit.ReserveRequest{StudentID: "stu1", Route: "admin"})
	require.NoError(t, err)
	require.Equal(t, interview.SourceOrg, iv.CreditSource)

	ledger.Tx.AssertNotCalled(t, "UpdateStudentCredits", ctx, tenantID, "stu1", mock.Anything)

	entry := ledger.Tx.Calls[len(ledger.Tx.Calls)-1].Arguments.Get(1).(*credit.HistoryEntry)
	require.Equal(t, 7, entry.BalanceBefore)
	require.Equal(t, 6, entry.BalanceAfter)
	require.Nil(t, entry.StudentID)
}

func TestReserve_QuotaExceeded(t *testing.T) {
	ctx := context.Background()

	full := testOrg()
	full.QuotaUsed = full.QuotaLimit

	ledger := newLedger()
	ledger.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(3), nil)
	ledger.On("GetOrganization", ctx, tenantID, "org1").Return(full, nil)

	svc := credit.NewService(ledger, nil, 3)
	_, err := svc.Reserve(ctx, tenantID, credit.ReserveRequest{StudentID: "stu1"})
	require.ErrorIs(t, err, credit.ErrQuotaExceeded)
	ledger.AssertNotCalled(t, "RunTransaction", ctx)
}

func TestReserve_ConflictRetriesThenSurfaces(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	ledger.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(2), nil)
	ledger.On("GetOrganization", ctx, tenantID, "org1").Return(testOrg(), nil)
	ledger.On("RunTransaction", ctx).Return(repository.ErrConflict)

	svc := credit.NewService(ledger, nil, 3)
	_, err := svc.Reserve(ctx, tenantID, credit.ReserveRequest{StudentID: "stu1", SelfInitiated: true})
	require.ErrorIs(t, err, credit.ErrResourceConflict)
	ledger.AssertNumberOfCalls(t, "RunTransaction", 3)
}

func TestRestore_RefundsOnce(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	reason := "abandoned"
	failed := &interview.Interview{
		ID:            "iv1",
		TenantID:      tenantID,
		OrgID:         "org1",
		UserID:        "stu1",
		Status:        interview.StatusFailed,
		CreditSource:  interview.SourceStudent,
		FailureReason: &reason,
	}

	ledger.On("RunTransaction", ctx).Return(nil)
	ledger.Tx.On("GetInterview", ctx, tenantID, "iv1").Return(failed, nil)
	ledger.Tx.On("ListHistoryForInterview", ctx, tenantID, "iv1").Return([]credit.HistoryEntry{
		{Type: credit.TypeUsed, InterviewID: "iv1", Amount: 1},
	}, nil)
	ledger.Tx.On("GetStudent", ctx, tenantID, "stu1").Return(testStudent(1), nil)
	ledger.Tx.On("UpdateStudentCredits", ctx, tenantID, "stu1", 3).Return(nil)
	ledger.Tx.On("AppendHistory", ctx, mock.Anything).Return(nil)

	svc := credit.NewService(ledger, nil, 3)
	require.NoError(t, svc.Restore(ctx, tenantID, "iv1", "interview abandoned"))

	entry := ledger.Tx.Calls[len(ledger.Tx.Calls)-1].Arguments.Get(1).(*credit.HistoryEntry)
	require.Equal(t, credit.TypeRestored, entry.Type)
	require.Equal(t, 1, entry.BalanceBefore)
	require.Equal(t, 2, entry.BalanceAfter)

	// The org's lifetime tally is never wound back by a refund.
	ledger.Tx.AssertNotCalled(t, "UpdateOrgCounters",
		ctx, tenantID, "org1", mock.Anything, mock.Anything)
}

func TestRestore_Idempotent(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	failed := &interview.Interview{
		ID: "iv1", TenantID: tenantID, OrgID: "org1", UserID: "stu1",
		Status: interview.StatusFailed, CreditSource: interview.SourceStudent,
	}

	ledger.On("RunTransaction", ctx).Return(nil)
	ledger.Tx.On("GetInterview", ctx, tenantID, "iv1").Return(failed, nil)
	ledger.Tx.On("ListHistoryForInterview", ctx, tenantID, "iv1").Return([]credit.HistoryEntry{
		{Type: credit.TypeUsed, InterviewID: "iv1", Amount: 1},
		{Type: credit.TypeRestored, InterviewID: "iv1", Amount: 1},
	}, nil)

	svc := credit.NewService(ledger, nil, 3)
	require.NoError(t, svc.Restore(ctx, tenantID, "iv1", "again"))

	ledger.Tx.AssertNotCalled(t, "AppendHistory", ctx, mock.Anything)
	ledger.Tx.AssertNotCalled(t, "UpdateStudentCredits", ctx, tenantID, "stu1", mock.Anything)
}

func TestRestore_NotRestorable(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	completed := &interview.Interview{
		ID: "iv1", TenantID: tenantID, Status: interview.StatusCompleted,
	}
	ledger.On("RunTransaction", ctx).Return(nil)
	ledger.Tx.On("GetInterview", ctx, tenantID, "iv1").Return(completed, nil)

	svc := credit.NewService(ledger, nil, 3)
	require.ErrorIs(t, svc.Restore(ctx, tenantID, "iv1", "nope"), credit.ErrNotRestorable)
}
