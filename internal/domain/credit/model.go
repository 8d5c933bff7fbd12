package credit

import "time"

// EntryType distinguishes credit consumption from refunds.
type EntryType string

const (
	TypeUsed     EntryType = "used"
	TypeRestored EntryType = "restored"
)

// HistoryEntry is an immutable audit fact about one credit mutation. It is
// appended in the same transaction as the mutation it documents, so the ledger
// and its history can never disagree.
//
// BalanceBefore/BalanceAfter track the remaining balance of the bucket that
// was charged: student credits for student-funded interviews, quota headroom
// for org-funded ones. Unlimited quotas record -1 for both.
type HistoryEntry struct {
	ID            int64      `json:"id"`
	TenantID      string     `json:"tenant_id"`
	OrgID         string     `json:"org_id"`
	StudentID     *string    `json:"student_id,omitempty"`
	Type          EntryType  `json:"type"`
	Amount        int        `json:"amount"`
	Reason        string     `json:"reason"`
	InterviewID   string     `json:"interview_id"`
	BalanceBefore int        `json:"balance_before"`
	BalanceAfter  int        `json:"balance_after"`
	CreatedAt     time.Time  `json:"created_at"`
}
