package interview

import (
	"context"
	"time"

	"github.com/skillgate/interviewd/internal/domain/scoring"
)

// Repository provides interview persistence. The conditional transition
// methods are single-row updates guarded by a status-equality precondition, so
// concurrent sweeps and session-end events can race safely: exactly one caller
// observes applied=true.
type Repository interface {
	Get(ctx context.Context, tenantID, id string) (*Interview, error)
	ListByStatus(ctx context.Context, tenantID string, status Status) ([]Interview, error)

	// StartIfScheduled transitions scheduled -> in_progress.
	StartIfScheduled(ctx context.Context, tenantID, id string, startTime time.Time) (bool, error)

	// CompleteIfInProgress transitions in_progress -> completed with the final report.
	CompleteIfInProgress(ctx context.Context, tenantID, id string, score, finalScore float64,
		details []scoring.AnswerScore, report *scoring.Report, endTime time.Time) (bool, error)

	// FailIfNotTerminal transitions a non-terminal interview to failed.
	FailIfNotTerminal(ctx context.Context, tenantID, id, reason string, endTime time.Time) (bool, error)
}
