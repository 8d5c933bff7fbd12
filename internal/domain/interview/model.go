package interview

import (
	"time"

	"github.com/skillgate/interviewd/internal/domain/scoring"
)

// Status represents the lifecycle status of an interview
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CreditSource identifies which bucket funded the interview.
type CreditSource string

const (
	SourceOrg     CreditSource = "org"
	SourceStudent CreditSource = "student"
)

// FailureAbandoned is the failure reason applied by reconciliation.
const FailureAbandoned = "abandoned"

// Interview is the ledger entity created by a successful reservation. It is
// never deleted; terminal states keep it for audit and export.
type Interview struct {
	ID            string                `json:"id"`
	TenantID      string                `json:"tenant_id"`
	OrgID         string                `json:"org_id"`
	UserID        string                `json:"user_id"`
	Status        Status                `json:"status"`
	CreditSource  CreditSource          `json:"credit_source"`
	Route         string                `json:"route,omitempty"`
	Score         *float64              `json:"score,omitempty"`
	FinalScore    *float64              `json:"final_score,omitempty"`
	ScoreDetails  []scoring.AnswerScore `json:"score_details,omitempty"`
	FinalReport   *scoring.Report       `json:"final_report,omitempty"`
	FailureReason *string               `json:"failure_reason,omitempty"`
	StartTime     *time.Time            `json:"start_time,omitempty"`
	EndTime       *time.Time            `json:"end_time,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// Age returns how long the interview has been running, falling back to
// creation time when no start was recorded.
func (i *Interview) Age(now time.Time) time.Duration {
	if i.StartTime != nil {
		return now.Sub(*i.StartTime)
	}
	return now.Sub(i.CreatedAt)
}
