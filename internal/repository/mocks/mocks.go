package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/skillgate/interviewd/internal/domain/credit"
	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/domain/org"
	"github.com/skillgate/interviewd/internal/domain/scoring"
	"github.com/skillgate/interviewd/internal/domain/student"
)

// Ledger is a mock for credit.Ledger. RunTransaction passes the configured
// Tx mock into the closure so tests can script transactional reads.
type Ledger struct {
	mock.Mock
	Tx *Tx
}

func (m *Ledger) GetOrganization(ctx context.Context, tenantID, id string) (*org.Organization, error) {
	args := m.Called(ctx, tenantID, id)
	if o, ok := args.Get(0).(*org.Organization); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Ledger) GetStudent(ctx context.Context, tenantID, id string) (*student.Student, error) {
	args := m.Called(ctx, tenantID, id)
	if s, ok := args.Get(0).(*student.Student); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Ledger) ListHistory(ctx context.Context, tenantID string, opts credit.ListHistoryOptions) ([]credit.HistoryEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if entries, ok := args.Get(0).([]credit.HistoryEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Ledger) RunTransaction(ctx context.Context, fn func(tx credit.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	if err := fn(m.Tx); err != nil {
		return err
	}
	if len(args) > 1 {
		return args.Error(1)
	}
	return nil
}

// Tx is a mock for credit.Tx.
type Tx struct {
	mock.Mock
}

func (m *Tx) GetOrganization(ctx context.Context, tenantID, id string) (*org.Organization, error) {
	args := m.Called(ctx, tenantID, id)
	if o, ok := args.Get(0).(*org.Organization); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Tx) GetStudent(ctx context.Context, tenantID, id string) (*student.Student, error) {
	args := m.Called(ctx, tenantID, id)
	if s, ok := args.Get(0).(*student.Student); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Tx) GetInterview(ctx context.Context, tenantID, id string) (*interview.Interview, error) {
	args := m.Called(ctx, tenantID, id)
	if iv, ok := args.Get(0).(*interview.Interview); ok {
		return iv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Tx) CreateInterview(ctx context.Context, iv *interview.Interview) error {
	args := m.Called(ctx, iv)
	return args.Error(0)
}

func (m *Tx) UpdateStudentCredits(ctx context.Context, tenantID, id string, creditsUsed int) error {
	args := m.Called(ctx, tenantID, id, creditsUsed)
	return args.Error(0)
}

func (m *Tx) UpdateOrgCounters(ctx context.Context, tenantID, id string, quotaUsed, studentCreditsUsed int) error {
	args := m.Called(ctx, tenantID, id, quotaUsed, studentCreditsUsed)
	return args.Error(0)
}

func (m *Tx) AppendHistory(ctx context.Context, entry *credit.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *Tx) ListHistoryForInterview(ctx context.Context, tenantID, interviewID string) ([]credit.HistoryEntry, error) {
	args := m.Called(ctx, tenantID, interviewID)
	if entries, ok := args.Get(0).([]credit.HistoryEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// InterviewRepository is a mock for interview.Repository.
type InterviewRepository struct {
	mock.Mock
}

func (m *InterviewRepository) Get(ctx context.Context, tenantID, id string) (*interview.Interview, error) {
	args := m.Called(ctx, tenantID, id)
	if iv, ok := args.Get(0).(*interview.Interview); ok {
		return iv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InterviewRepository) ListByStatus(ctx context.Context, tenantID string, status interview.Status) ([]interview.Interview, error) {
	args := m.Called(ctx, tenantID, status)
	if list, ok := args.Get(0).([]interview.Interview); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InterviewRepository) StartIfScheduled(ctx context.Context, tenantID, id string, startTime time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, startTime)
	return args.Bool(0), args.Error(1)
}

func (m *InterviewRepository) CompleteIfInProgress(ctx context.Context, tenantID, id string, score, finalScore float64,
	details []scoring.AnswerScore, report *scoring.Report, endTime time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, score, finalScore, details, report, endTime)
	return args.Bool(0), args.Error(1)
}

func (m *InterviewRepository) FailIfNotTerminal(ctx context.Context, tenantID, id, reason string, endTime time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, reason, endTime)
	return args.Bool(0), args.Error(1)
}
