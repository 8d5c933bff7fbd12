package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/repository"
)

// DefaultMaxAttempts bounds transaction retries on write conflicts. The store
// detects conflicts itself, so no backoff between attempts is needed.
const DefaultMaxAttempts = 3

// unlimitedBalance marks history balances for organizations without a quota limit.
const unlimitedBalance = -1

// Service is the credit/quota allocator. It owns every mutation of
// Organization and Student counters and guarantees that an Interview, its
// history entry, and the counter updates commit atomically or not at all.
type Service struct {
	ledger      Ledger
	logger      *zap.Logger
	maxAttempts int
}

// NewService creates a new allocator.
func NewService(ledger Ledger, logger *zap.Logger, maxAttempts int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Service{ledger: ledger, logger: logger, maxAttempts: maxAttempts}
}

// ReserveRequest describes one reservation.
type ReserveRequest struct {
	StudentID string
	// Route records which surface initiated the reservation; stored on the
	// interview and in the history reason.
	Route string
	// SelfInitiated reservations spend the student's credit allocation;
	// org-initiated ones spend the organization quota.
	SelfInitiated bool
}

// Reserve consumes one credit and creates a scheduled interview.
//
// Prechecks outside the transaction fast-fail the obvious cases but are not
// authoritative: the same conditions are re-verified against transactional
// reads, which is what makes two concurrent callers unable to both drain the
// last credit.
func (s *Service) Reserve(ctx context.Context, tenantID string, req ReserveRequest) (*interview.Interview, error) {
	if tenantID == "" || req.StudentID == "" {
		return nil, ErrInvalidInput
	}

	stu, err := s.ledger.GetStudent(ctx, tenantID, req.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("loading student: %w", err)
	}
	if !stu.DashboardEnabled {
		return nil, ErrDashboardDisabled
	}
	if req.SelfInitiated && !stu.CanSelfStart {
		return nil, ErrSelfStartDisabled
	}

	o, err := s.ledger.GetOrganization(ctx, tenantID, stu.OrgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("loading organization: %w", err)
	}

	if req.SelfInitiated {
		if stu.CreditsRemaining() <= 0 {
			return nil, ErrNoCreditsRemaining
		}
	} else if !o.QuotaAvailable() {
		return nil, ErrQuotaExceeded
	}

	var created *interview.Interview
	err = s.withRetry(ctx, func(tx Tx) error {
		created = nil
		iv, err := s.reserveTx(ctx, tx, tenantID, stu.OrgID, req)
		if err != nil {
			return err
		}
		created = iv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("interview reserved",
		zap.String("interview_id", created.ID),
		zap.String("student_id", req.StudentID),
		zap.String("credit_source", string(created.CreditSource)))

	return created, nil
}

// reserveTx is the authoritative reservation: one transactional closure
// covering the re-read, the interview insert, both counter updates, and the
// history append.
func (s *Service) reserveTx(ctx context.Context, tx Tx, tenantID, orgID string, req ReserveRequest) (*interview.Interview, error) {
	stu, err := tx.GetStudent(ctx, tenantID, req.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	o, err := tx.GetOrganization(ctx, tenantID, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}

	source := interview.SourceOrg
	if req.SelfInitiated {
		source = interview.SourceStudent
	}

	iv := &interview.Interview{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		OrgID:        orgID,
		UserID:       req.StudentID,
		Status:       interview.StatusScheduled,
		CreditSource: source,
		Route:        req.Route,
		CreatedAt:    time.Now(),
	}

	entry := &HistoryEntry{
		TenantID:    tenantID,
		OrgID:       orgID,
		Type:        TypeUsed,
		Amount:      1,
		Reason:      fmt.Sprintf("interview reserved via %s", req.Route),
		InterviewID: iv.ID,
		CreatedAt:   time.Now(),
	}

	if source == interview.SourceStudent {
		// Recompute from the transactional read, not the precheck value.
		remaining := stu.CreditsRemaining()
		if remaining <= 0 {
			return nil, ErrNoCreditsRemaining
		}
		studentID := req.StudentID
		entry.StudentID = &studentID
		entry.BalanceBefore = remaining
		entry.BalanceAfter = remaining - 1

		if err := tx.UpdateStudentCredits(ctx, tenantID, stu.ID, stu.CreditsUsed+1); err != nil {
			return nil, err
		}
		// Student credits never charge the quota; the org only tracks them
		// in a separate counter.
		if err := tx.UpdateOrgCounters(ctx, tenantID, o.ID, o.QuotaUsed, o.StudentCreditsUsed+1); err != nil {
			return nil, err
		}
	} else {
		if !o.QuotaAvailable() {
			return nil, ErrQuotaExceeded
		}
		entry.BalanceBefore = o.QuotaRemaining()
		entry.BalanceAfter = o.QuotaRemaining() - 1
		if o.QuotaLimit == 0 {
			entry.BalanceBefore = unlimitedBalance
			entry.BalanceAfter = unlimitedBalance
		}
		if err := tx.UpdateOrgCounters(ctx, tenantID, o.ID, o.QuotaUsed+1, o.StudentCreditsUsed); err != nil {
			return nil, err
		}
	}

	if err := tx.CreateInterview(ctx, iv); err != nil {
		return nil, err
	}
	if err := tx.AppendHistory(ctx, entry); err != nil {
		return nil, err
	}

	return iv, nil
}

// Restore refunds the credit of a failed interview. Idempotent: a second
// restore for the same interview is a no-op.
func (s *Service) Restore(ctx context.Context, tenantID, interviewID, reason string) error {
	if tenantID == "" || interviewID == "" {
		return ErrInvalidInput
	}

	return s.withRetry(ctx, func(tx Tx) error {
		iv, err := tx.GetInterview(ctx, tenantID, interviewID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotRestorable
			}
			return err
		}
		if iv.Status != interview.StatusFailed {
			return ErrNotRestorable
		}

		history, err := tx.ListHistoryForInterview(ctx, tenantID, interviewID)
		if err != nil {
			return err
		}
		for _, e := range history {
			if e.Type == TypeRestored {
				return nil // already refunded
			}
		}

		entry := &HistoryEntry{
			TenantID:    tenantID,
			OrgID:       iv.OrgID,
			Type:        TypeRestored,
			Amount:      1,
			Reason:      reason,
			InterviewID: interviewID,
			CreatedAt:   time.Now(),
		}

		if iv.CreditSource == interview.SourceStudent {
			stu, err := tx.GetStudent(ctx, tenantID, iv.UserID)
			if err != nil {
				return err
			}
			if stu.CreditsUsed <= 0 {
				return ErrNotRestorable
			}
			studentID := iv.UserID
			entry.StudentID = &studentID
			entry.BalanceBefore = stu.CreditsRemaining()
			entry.BalanceAfter = stu.CreditsRemaining() + 1

			// Only the student's spendable balance comes back. The org's
			// student_credits_used is a lifetime tally and never decreases;
			// the refund is visible through the restored history entry.
			if err := tx.UpdateStudentCredits(ctx, tenantID, stu.ID, stu.CreditsUsed-1); err != nil {
				return err
			}
		} else {
			o, err := tx.GetOrganization(ctx, tenantID, iv.OrgID)
			if err != nil {
				return err
			}
			if o.QuotaUsed <= 0 {
				return ErrNotRestorable
			}
			entry.BalanceBefore = o.QuotaRemaining()
			entry.BalanceAfter = o.QuotaRemaining() + 1
			if o.QuotaLimit == 0 {
				entry.BalanceBefore = unlimitedBalance
				entry.BalanceAfter = unlimitedBalance
			}
			if err := tx.UpdateOrgCounters(ctx, tenantID, o.ID, o.QuotaUsed-1, o.StudentCreditsUsed); err != nil {
				return err
			}
		}

		return tx.AppendHistory(ctx, entry)
	})
}

// History lists audit entries for export tooling.
func (s *Service) History(ctx context.Context, tenantID string, opts ListHistoryOptions) ([]HistoryEntry, error) {
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 100
	}
	return s.ledger.ListHistory(ctx, tenantID, opts)
}

// withRetry re-runs the whole transactional closure on write conflicts, up to
// the bound. Business failures inside the closure abort immediately; only
// repository.ErrConflict is retried, and it is never swallowed.
func (s *Service) withRetry(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.ledger.RunTransaction(ctx, fn)
		if err == nil || !errors.Is(err, repository.ErrConflict) {
			return err
		}
		s.logger.Debug("ledger transaction conflict",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts))
	}
	return fmt.Errorf("%w: %s", ErrResourceConflict, err)
}
