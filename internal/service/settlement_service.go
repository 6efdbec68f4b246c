package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"valcoin-api/internal/engine"
	"valcoin-api/internal/events"
	"valcoin-api/internal/monitoring"
)

// SettlementService exposes the cron jobs as on-demand operations for admin
// tooling. A manual run goes through exactly the same path as a scheduled
// one, so the idempotency guards still apply: triggering a job twice in one
// day by hand pays nobody twice.
type SettlementService interface {
	RunInterestPaymentManually(ctx context.Context) (*ManualRunResponse, error)
	RunLoanChargesManually(ctx context.Context) (*ManualRunResponse, error)
	TestProfessorSalaryManually(ctx context.Context) (*ManualRunResponse, error)
	RunInactivityFeeManually(ctx context.Context) (*ManualRunResponse, error)
}

type settlementService struct {
	interestJob   engine.Job
	loanJob       engine.Job
	salaryJob     engine.Job
	inactivityJob engine.Job
	metrics       *monitoring.SettlementMetrics
	publisher     events.Publisher
}

func NewSettlementService(
	interestJob engine.Job,
	loanJob engine.Job,
	salaryJob engine.Job,
	inactivityJob engine.Job,
	metrics *monitoring.SettlementMetrics,
	publisher events.Publisher,
) SettlementService {
	return &settlementService{
		interestJob:   interestJob,
		loanJob:       loanJob,
		salaryJob:     salaryJob,
		inactivityJob: inactivityJob,
		metrics:       metrics,
		publisher:     publisher,
	}
}

type ManualRunResponse struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Summary      *engine.RunSummary `json:"summary,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

func (s *settlementService) RunInterestPaymentManually(ctx context.Context) (*ManualRunResponse, error) {
	return s.runJob(ctx, s.interestJob)
}

func (s *settlementService) RunLoanChargesManually(ctx context.Context) (*ManualRunResponse, error) {
	return s.runJob(ctx, s.loanJob)
}

func (s *settlementService) TestProfessorSalaryManually(ctx context.Context) (*ManualRunResponse, error) {
	return s.runJob(ctx, s.salaryJob)
}

func (s *settlementService) RunInactivityFeeManually(ctx context.Context) (*ManualRunResponse, error) {
	return s.runJob(ctx, s.inactivityJob)
}

func (s *settlementService) runJob(ctx context.Context, job engine.Job) (*ManualRunResponse, error) {
	logrus.WithField("job", job.Name()).Info("Manual settlement run requested")

	summary, err := job.Run(ctx)

	if s.metrics != nil {
		s.metrics.RecordRun(summary)
	}
	if s.publisher != nil {
		if pubErr := s.publisher.PublishRunEvent(ctx, summary); pubErr != nil {
			logrus.WithField("job", job.Name()).WithError(pubErr).Warn("Failed to publish settlement run event")
		}
	}

	if err != nil {
		return &ManualRunResponse{
			Success:      false,
			Message:      fmt.Sprintf("%s run failed", job.Name()),
			Summary:      summary,
			ErrorMessage: err.Error(),
		}, nil
	}

	message := fmt.Sprintf("%s run completed: %d posted, %d skipped", job.Name(), summary.Posted, summary.Skipped)
	if summary.Outcome == engine.OutcomeSkipped {
		message = fmt.Sprintf("%s run skipped: %s", job.Name(), summary.Message)
	}

	return &ManualRunResponse{
		Success: true,
		Message: message,
		Summary: summary,
	}, nil
}
