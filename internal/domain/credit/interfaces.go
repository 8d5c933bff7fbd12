package credit

import (
	"context"

	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/domain/org"
	"github.com/skillgate/interviewd/internal/domain/student"
)

// Tx exposes typed read-modify-write operations inside one atomic ledger
// transaction. Reads observe the transaction's own writes; a commit that loses
// to a concurrent writer surfaces repository.ErrConflict from RunTransaction.
type Tx interface {
	GetOrganization(ctx context.Context, tenantID, id string) (*org.Organization, error)
	GetStudent(ctx context.Context, tenantID, id string) (*student.Student, error)
	GetInterview(ctx context.Context, tenantID, id string) (*interview.Interview, error)

	CreateInterview(ctx context.Context, iv *interview.Interview) error
	UpdateStudentCredits(ctx context.Context, tenantID, id string, creditsUsed int) error
	UpdateOrgCounters(ctx context.Context, tenantID, id string, quotaUsed, studentCreditsUsed int) error
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	ListHistoryForInterview(ctx context.Context, tenantID, interviewID string) ([]HistoryEntry, error)
}

// ListHistoryOptions filters audit exports.
type ListHistoryOptions struct {
	StudentID   *string
	InterviewID *string
	Type        *EntryType
	Limit       int
	Offset      int
}

// Ledger is the atomic store the allocator runs against. The allocator never
// talks to a concrete database; any store offering serializable multi-record
// transactions can implement this.
type Ledger interface {
	GetOrganization(ctx context.Context, tenantID, id string) (*org.Organization, error)
	GetStudent(ctx context.Context, tenantID, id string) (*student.Student, error)
	ListHistory(ctx context.Context, tenantID string, opts ListHistoryOptions) ([]HistoryEntry, error)

	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}
