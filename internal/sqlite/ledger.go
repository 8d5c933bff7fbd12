package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/skillgate/interviewd/internal/domain/credit"
	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/domain/org"
	"github.com/skillgate/interviewd/internal/domain/student"
	"github.com/skillgate/interviewd/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx so reads share one
// implementation inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ledger implements credit.Ledger over SQLite. Transactions rely on SQLite's
// serialized writer: a transaction that cannot acquire the write lock in time
// surfaces repository.ErrConflict and the allocator retries the whole closure.
type Ledger struct {
	db *DB
}

// NewLedger creates a new Ledger.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db}
}

// RunTransaction executes fn inside one atomic transaction. Nothing is
// visible to other readers until commit; a rollback leaves no side effects.
func (l *Ledger) RunTransaction(ctx context.Context, fn func(tx credit.Tx) error) error {
	sqlTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&ledgerTx{q: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		if isBusy(err) {
			return repository.ErrConflict
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		if isBusy(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
func (l *Ledger) GetOrganization(ctx context.Context, tenantID, id string) (*org.Organization, error) {
	return getOrganization(ctx, l.db, tenantID, id)
}

// GetStudent retrieves a student by ID.
func (l *Ledger) GetStudent(ctx context.Context, tenantID, id string) (*student.Student, error) {
	return getStudent(ctx, l.db, tenantID, id)
}

// CreateOrganization inserts an organization. Organizations are provisioned at
// tenant onboarding; the allocator only ever updates their counters.
func (l *Ledger) CreateOrganization(ctx context.Context, o *org.Organization) error {
	query := `
		INSERT INTO organizations (id, tenant_id, name, quota_limit, quota_used, student_credits_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, query,
		o.ID, o.TenantID, o.Name, o.QuotaLimit, o.QuotaUsed, o.StudentCreditsUsed, o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// CreateStudent inserts a student.
func (l *Ledger) CreateStudent(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (id, tenant_id, org_id, name, credits_allocated, credits_used,
			can_self_start, dashboard_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, query,
		s.ID, s.TenantID, s.OrgID, s.Name, s.CreditsAllocated, s.CreditsUsed,
		s.CanSelfStart, s.DashboardEnabled, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// ListHistory lists credit history entries, newest first.
func (l *Ledger) ListHistory(ctx context.Context, tenantID string, opts credit.ListHistoryOptions) ([]credit.HistoryEntry, error) {
	query := `
		SELECT id, tenant_id, org_id, student_id, type, amount, reason,
		       interview_id, balance_before, balance_after, created_at
		FROM credit_history
		WHERE tenant_id = ?
	`
	args := []any{tenantID}

	var filters []string
	if opts.StudentID != nil {
		filters = append(filters, "student_id = ?")
		args = append(args, *opts.StudentID)
	}
	if opts.InterviewID != nil {
		filters = append(filters, "interview_id = ?")
		args = append(args, *opts.InterviewID)
	}
	if opts.Type != nil {
		filters = append(filters, "type = ?")
		args = append(args, string(*opts.Type))
	}
	if len(filters) > 0 {
		query += " AND " + strings.Join(filters, " AND ")
	}

	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []credit.HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// ledgerTx implements credit.Tx over one *sql.Tx. Reads within the
// transaction observe its own writes.
type ledgerTx struct {
	q *sql.Tx
}

func (t *ledgerTx) GetOrganization(ctx context.Context, tenantID, id string) (*org.Organization, error) {
	return getOrganization(ctx, t.q, tenantID, id)
}

func (t *ledgerTx) GetStudent(ctx context.Context, tenantID, id string) (*student.Student, error) {
	return getStudent(ctx, t.q, tenantID, id)
}

func (t *ledgerTx) GetInterview(ctx context.Context, tenantID, id string) (*interview.Interview, error) {
	return getInterview(ctx, t.q, tenantID, id)
}

func (t *ledgerTx) CreateInterview(ctx context.Context, iv *interview.Interview) error {
	return insertInterview(ctx, t.q, iv)
}

func (t *ledgerTx) UpdateStudentCredits(ctx context.Context, tenantID, id string, creditsUsed int) error {
	result, err := t.q.ExecContext(ctx,
		`UPDATE students SET credits_used = ? WHERE id = ? AND tenant_id = ?`,
		creditsUsed, id, tenantID)
	if err != nil {
		if isBusy(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update student credits: %w", err)
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

func (t *ledgerTx) UpdateOrgCounters(ctx context.Context, tenantID, id string, quotaUsed, studentCreditsUsed int) error {
	result, err := t.q.ExecContext(ctx,
		`UPDATE organizations SET quota_used = ?, student_credits_used = ? WHERE id = ? AND tenant_id = ?`,
		quotaUsed, studentCreditsUsed, id, tenantID)
	if err != nil {
		if isBusy(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update organization counters: %w", err)
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

func (t *ledgerTx) AppendHistory(ctx context.Context, entry *credit.HistoryEntry) error {
	query := `
		INSERT INTO credit_history (tenant_id, org_id, student_id, type, amount, reason,
			interview_id, balance_before, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := t.q.ExecContext(ctx, query,
		entry.TenantID, entry.OrgID, entry.StudentID, string(entry.Type), entry.Amount,
		entry.Reason, entry.InterviewID, entry.BalanceBefore, entry.BalanceAfter, entry.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to append history: %w", err)
	}
	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	return nil
}

func (t *ledgerTx) ListHistoryForInterview(ctx context.Context, tenantID, interviewID string) ([]credit.HistoryEntry, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT id, tenant_id, org_id, student_id, type, amount, reason,
		       interview_id, balance_before, balance_after, created_at
		FROM credit_history
		WHERE tenant_id = ? AND interview_id = ?
		ORDER BY id ASC
	`, tenantID, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview history: %w", err)
	}
	defer rows.Close()

	var entries []credit.HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func getOrganization(ctx context.Context, q querier, tenantID, id string) (*org.Organization, error) {
	var o org.Organization
	err := q.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, quota_limit, quota_used, student_credits_used, created_at
		FROM organizations
		WHERE id = ? AND tenant_id = ?
	`, id, tenantID).Scan(
		&o.ID, &o.TenantID, &o.Name, &o.QuotaLimit, &o.QuotaUsed, &o.StudentCreditsUsed, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &o, nil
}

func getStudent(ctx context.Context, q querier, tenantID, id string) (*student.Student, error) {
	var s student.Student
	err := q.QueryRowContext(ctx, `
		SELECT id, tenant_id, org_id, name, credits_allocated, credits_used,
		       can_self_start, dashboard_enabled, created_at
		FROM students
		WHERE id = ? AND tenant_id = ?
	`, id, tenantID).Scan(
		&s.ID, &s.TenantID, &s.OrgID, &s.Name, &s.CreditsAllocated, &s.CreditsUsed,
		&s.CanSelfStart, &s.DashboardEnabled, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryEntry(row rowScanner) (*credit.HistoryEntry, error) {
	var (
		entry     credit.HistoryEntry
		studentID sql.NullString
		entryType string
		createdAt time.Time
	)
	err := row.Scan(
		&entry.ID, &entry.TenantID, &entry.OrgID, &studentID, &entryType, &entry.Amount,
		&entry.Reason, &entry.InterviewID, &entry.BalanceBefore, &entry.BalanceAfter, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}
	if studentID.Valid {
		entry.StudentID = &studentID.String
	}
	entry.Type = credit.EntryType(entryType)
	entry.CreatedAt = createdAt
	return &entry, nil
}
