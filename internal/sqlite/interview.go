package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/domain/scoring"
	"github.com/skillgate/interviewd/internal/repository"
)

// InterviewRepository implements interview.Repository for SQLite
type InterviewRepository struct {
	db *DB
}

// NewInterviewRepository creates a new InterviewRepository
func NewInterviewRepository(db *DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

// Get retrieves an interview by ID
func (r *InterviewRepository) Get(ctx context.Context, tenantID, id string) (*interview.Interview, error) {
	return getInterview(ctx, r.db, tenantID, id)
}

// ListByStatus lists interviews in a given status, oldest first.
func (r *InterviewRepository) ListByStatus(ctx context.Context, tenantID string, status interview.Status) ([]interview.Interview, error) {
	rows, err := r.db.QueryContext(ctx, selectInterview+`
		WHERE tenant_id = ? AND status = ?
		ORDER BY created_at ASC
	`, tenantID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []interview.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, *iv)
	}
	return interviews, rows.Err()
}

// StartIfScheduled transitions scheduled -> in_progress. The status-equality
// guard makes the transition race-safe: only one caller sees applied=true.
func (r *InterviewRepository) StartIfScheduled(ctx context.Context, tenantID, id string, startTime time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE interviews
		SET status = ?, start_time = ?
		WHERE id = ? AND tenant_id = ? AND status = ?
	`, string(interview.StatusInProgress), startTime, id, tenantID, string(interview.StatusScheduled))
	if err != nil {
		return false, fmt.Errorf("failed to start interview: %w", err)
	}
	return oneRowAffected(result)
}

// CompleteIfInProgress transitions in_progress -> completed with the report.
func (r *InterviewRepository) CompleteIfInProgress(ctx context.Context, tenantID, id string,
	score, finalScore float64, details []scoring.AnswerScore, report *scoring.Report, endTime time.Time) (bool, error) {

	detailsJSON, err := marshalNullable(details)
	if err != nil {
		return false, err
	}
	reportJSON, err := marshalNullable(report)
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE interviews
		SET status = ?, score = ?, final_score = ?, score_details = ?, final_report = ?, end_time = ?
		WHERE id = ? AND tenant_id = ? AND status = ?
	`, string(interview.StatusCompleted), score, finalScore, detailsJSON, reportJSON, endTime,
		id, tenantID, string(interview.StatusInProgress))
	if err != nil {
		return false, fmt.Errorf("failed to complete interview: %w", err)
	}
	return oneRowAffected(result)
}

// FailIfNotTerminal transitions scheduled or in_progress -> failed.
func (r *InterviewRepository) FailIfNotTerminal(ctx context.Context, tenantID, id, reason string, endTime time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE interviews
		SET status = ?, failure_reason = ?, end_time = ?
		WHERE id = ? AND tenant_id = ? AND status IN (?, ?)
	`, string(interview.StatusFailed), reason, endTime, id, tenantID,
		string(interview.StatusScheduled), string(interview.StatusInProgress))
	if err != nil {
		return false, fmt.Errorf("failed to fail interview: %w", err)
	}
	return oneRowAffected(result)
}

// AttachReport stores a final report without changing status. Used to simulate
// the lost-status-update case in tests and by evaluator callbacks that only
// deliver the report.
func (r *InterviewRepository) AttachReport(ctx context.Context, tenantID, id string, report *scoring.Report) error {
	reportJSON, err := marshalNullable(report)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE interviews SET final_report = ? WHERE id = ? AND tenant_id = ?
	`, reportJSON, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to attach report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func oneRowAffected(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

const selectInterview = `
	SELECT id, tenant_id, org_id, user_id, status, credit_source, route,
	       score, final_score, score_details, final_report, failure_reason,
	       start_time, end_time, created_at
	FROM interviews
`

func getInterview(ctx context.Context, q querier, tenantID, id string) (*interview.Interview, error) {
	row := q.QueryRowContext(ctx, selectInterview+` WHERE id = ? AND tenant_id = ?`, id, tenantID)
	iv, err := scanInterview(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return iv, nil
}

func insertInterview(ctx context.Context, q querier, iv *interview.Interview) error {
	detailsJSON, err := marshalNullable(iv.ScoreDetails)
	if err != nil {
		return err
	}
	reportJSON, err := marshalNullable(iv.FinalReport)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO interviews (
			id, tenant_id, org_id, user_id, status, credit_source, route,
			score, final_score, score_details, final_report, failure_reason,
			start_time, end_time, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		iv.ID, iv.TenantID, iv.OrgID, iv.UserID, string(iv.Status), string(iv.CreditSource), iv.Route,
		iv.Score, iv.FinalScore, detailsJSON, reportJSON, iv.FailureReason,
		iv.StartTime, iv.EndTime, iv.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

func scanInterview(row rowScanner) (*interview.Interview, error) {
	var (
		iv            interview.Interview
		status        string
		source        string
		score         sql.NullFloat64
		finalScore    sql.NullFloat64
		scoreDetails  sql.NullString
		finalReport   sql.NullString
		failureReason sql.NullString
		startTime     sql.NullTime
		endTime       sql.NullTime
	)
	err := row.Scan(
		&iv.ID, &iv.TenantID, &iv.OrgID, &iv.UserID, &status, &source, &iv.Route,
		&score, &finalScore, &scoreDetails, &finalReport, &failureReason,
		&startTime, &endTime, &iv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan interview: %w", err)
	}

	iv.Status = interview.Status(status)
	iv.CreditSource = interview.CreditSource(source)
	if score.Valid {
		iv.Score = &score.Float64
	}
	if finalScore.Valid {
		iv.FinalScore = &finalScore.Float64
	}
	if failureReason.Valid {
		iv.FailureReason = &failureReason.String
	}
	if startTime.Valid {
		iv.StartTime = &startTime.Time
	}
	if endTime.Valid {
		iv.EndTime = &endTime.Time
	}
	if scoreDetails.Valid && scoreDetails.String != "" {
		if err := json.Unmarshal([]byte(scoreDetails.String), &iv.ScoreDetails); err != nil {
			return nil, fmt.Errorf("failed to decode score details: %w", err)
		}
	}
	if finalReport.Valid && finalReport.String != "" {
		if err := json.Unmarshal([]byte(finalReport.String), &iv.FinalReport); err != nil {
			return nil, fmt.Errorf("failed to decode final report: %w", err)
		}
	}
	return &iv, nil
}

// marshalNullable encodes a value as JSON, mapping nil/empty to SQL NULL.
func marshalNullable(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *scoring.Report:
		if val == nil {
			return nil, nil
		}
	case []scoring.AnswerScore:
		if len(val) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return string(data), nil
}
