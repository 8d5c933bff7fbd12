package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skillgate/interviewd/internal/domain/scoring"
	"github.com/skillgate/interviewd/internal/repository"
)

const (
	// DefaultStalenessWindow is how long an in_progress interview may sit
	// without a final report before reconciliation abandons it.
	DefaultStalenessWindow = 2 * time.Hour

	defaultSweepConcurrency = 4
)

// Config carries lifecycle tunables.
type Config struct {
	StalenessWindow  time.Duration
	SweepConcurrency int
}

// Service drives interview lifecycle transitions and reconciliation.
type Service struct {
	repo      Repository
	logger    *zap.Logger
	staleness time.Duration
	sweepers  int
}

// NewService creates a new interview lifecycle service.
func NewService(repo Repository, logger *zap.Logger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StalenessWindow <= 0 {
		cfg.StalenessWindow = DefaultStalenessWindow
	}
	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = defaultSweepConcurrency
	}
	return &Service{
		repo:      repo,
		logger:    logger,
		staleness: cfg.StalenessWindow,
		sweepers:  cfg.SweepConcurrency,
	}
}

// Get loads an interview.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Interview, error) {
	iv, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, fmt.Errorf("loading interview: %w", err)
	}
	return iv, nil
}

// Start transitions a scheduled interview to in_progress.
func (s *Service) Start(ctx context.Context, tenantID, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	iv, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := ValidateTransition(iv.Status, StatusInProgress, nil); err != nil {
		return err
	}

	applied, err := s.repo.StartIfScheduled(ctx, tenantID, id, time.Now())
	if err != nil {
		return fmt.Errorf("starting interview: %w", err)
	}
	if !applied {
		// Lost the race to another transition.
		return ErrInvalidTransition
	}
	return nil
}

// FinalizeRequest carries the evaluator output for session completion.
type FinalizeRequest struct {
	InterviewID   string
	Answers       []scoring.AnswerInput
	HolisticScore *float64
	BodyEnabled   bool
	Profile       string
}

// Finalize runs the scoring engine over the submitted answers, stores the
// final report, and transitions the interview to completed. Scoring never
// touches the credit ledger.
func (s *Service) Finalize(ctx context.Context, tenantID string, req FinalizeRequest) (*Report, error) {
	if req.InterviewID == "" {
		return nil, ErrInvalidInput
	}
	iv, err := s.Get(ctx, tenantID, req.InterviewID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(iv.Status, StatusCompleted, nil); err != nil {
		return nil, err
	}

	opts := scoring.DefaultOptions(scoring.ProfileByName(req.Profile))
	opts.BodyEnabled = req.BodyEnabled
	opts.HolisticScore = req.HolisticScore

	report, details, err := scoring.BuildReport(req.Answers, opts)
	if err != nil {
		return nil, err
	}

	applied, err := s.repo.CompleteIfInProgress(ctx, tenantID, req.InterviewID,
		report.Overall, report.Overall, details, report, time.Now())
	if err != nil {
		return nil, fmt.Errorf("completing interview: %w", err)
	}
	if !applied {
		return nil, ErrInvalidTransition
	}

	for _, w := range report.Warnings {
		s.logger.Warn("score consistency warning",
			zap.String("interview_id", req.InterviewID),
			zap.String("level", w.Level),
			zap.Float64("discrepancy", w.Discrepancy))
	}

	return &Report{Interview: req.InterviewID, Final: report}, nil
}

// Report pairs a final report with its interview.
type Report struct {
	Interview string          `json:"interview_id"`
	Final     *scoring.Report `json:"final_report"`
}

// Fail marks an interview failed with a reason.
func (s *Service) Fail(ctx context.Context, tenantID, id, reason string) error {
	if id == "" {
		return ErrInvalidInput
	}
	reasonPtr := &reason
	iv, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := ValidateTransition(iv.Status, StatusFailed, reasonPtr); err != nil {
		return err
	}

	applied, err := s.repo.FailIfNotTerminal(ctx, tenantID, id, reason, time.Now())
	if err != nil {
		return fmt.Errorf("failing interview: %w", err)
	}
	if !applied {
		return ErrInvalidTransition
	}
	return nil
}

// ReconcileResult summarizes one reconciliation sweep.
type ReconcileResult struct {
	Fixed   int `json:"fixed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// Reconcile repairs interviews stuck in_progress. An attached final report
// means the evaluator finished but the status update was lost: complete and
// back-fill the score. Anything older than the staleness window fails as
// abandoned. Everything else is still legitimately running and is skipped.
// Errors on one interview never abort the sweep; each transition is a
// conditional update, so concurrent sweeps are safe and re-runs are no-ops.
func (s *Service) Reconcile(ctx context.Context, tenantID string, window time.Duration) (ReconcileResult, error) {
	if window <= 0 {
		window = s.staleness
	}

	stuck, err := s.repo.ListByStatus(ctx, tenantID, StatusInProgress)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("listing in-progress interviews: %w", err)
	}

	var (
		mu     sync.Mutex
		result = ReconcileResult{Total: len(stuck)}
		now    = time.Now()
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepers)
	for _, iv := range stuck {
		iv := iv
		g.Go(func() error {
			outcome := s.reconcileOne(ctx, tenantID, &iv, window, now)
			mu.Lock()
			switch outcome {
			case outcomeFixed:
				result.Fixed++
			case outcomeSkipped:
				result.Skipped++
			case outcomeError:
				result.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("reconciliation sweep finished",
		zap.Int("total", result.Total),
		zap.Int("fixed", result.Fixed),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Failed))

	return result, nil
}

type reconcileOutcome int

const (
	outcomeFixed reconcileOutcome = iota
	outcomeSkipped
	outcomeError
)

func (s *Service) reconcileOne(ctx context.Context, tenantID string, iv *Interview, window time.Duration, now time.Time) reconcileOutcome {
	switch {
	case iv.FinalReport != nil:
		score := iv.FinalReport.Overall
		if iv.Score != nil {
			score = *iv.Score
		}
		applied, err := s.repo.CompleteIfInProgress(ctx, tenantID, iv.ID,
			score, score, iv.ScoreDetails, iv.FinalReport, now)
		if err != nil {
			s.logger.Error("reconcile complete failed",
				zap.String("interview_id", iv.ID), zap.Error(err))
			return outcomeError
		}
		if !applied {
			return outcomeSkipped
		}
		s.logger.Info("reconciled orphaned completion",
			zap.String("interview_id", iv.ID), zap.Float64("score", score))
		return outcomeFixed

	case iv.Age(now) > window:
		applied, err := s.repo.FailIfNotTerminal(ctx, tenantID, iv.ID, FailureAbandoned, now)
		if err != nil {
			s.logger.Error("reconcile abandon failed",
				zap.String("interview_id", iv.ID), zap.Error(err))
			return outcomeError
		}
		if !applied {
			return outcomeSkipped
		}
		s.logger.Info("reconciled abandoned interview",
			zap.String("interview_id", iv.ID),
			zap.Duration("age", iv.Age(now)))
		return outcomeFixed

	default:
		return outcomeSkipped
	}
}
