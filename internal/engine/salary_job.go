package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

// SalaryJob distributes the monthly professor salary: on the configured day
// of month, each active professor receives the configured per-student amount
// summed over the distinct active students they teach, with every student's
// contribution split evenly across that student's professors. The rows are
// inserted first, all sharing one group id, then the balances are applied in
// a second set-based pass keyed by description and month; both passes share
// one transaction scope.
type SalaryJob struct {
	store repository.Store
	now   func() time.Time
}

func NewSalaryJob(store repository.Store) *SalaryJob {
	return &SalaryJob{
		store: store,
		now:   time.Now,
	}
}

func (j *SalaryJob) Name() string { return "professor_salary" }

func (j *SalaryJob) Run(ctx context.Context) (*RunSummary, error) {
	started := j.now()
	summary := &RunSummary{Job: j.Name(), Outcome: OutcomeCompleted}

	err := j.store.WithTransaction(ctx, func(tx repository.TxStore) error {
		return j.runPass(ctx, tx, summary)
	})

	summary.Duration = j.now().Sub(started)

	var skip skipRun
	if errors.As(err, &skip) {
		summary.Outcome = OutcomeSkipped
		summary.Message = skip.reason
		logrus.WithField("job", j.Name()).Info(skip.reason)
		return summary, nil
	}
	if err != nil {
		summary.Outcome = OutcomeFailed
		summary.Message = err.Error()
		logrus.WithField("job", j.Name()).WithError(err).Error("Professor salary run failed, rolled back")
		return summary, err
	}

	logrus.WithFields(logrus.Fields{
		"job":    j.Name(),
		"posted": summary.Posted,
	}).Info("Professor salary run completed")
	return summary, nil
}

func (j *SalaryJob) runPass(ctx context.Context, tx repository.TxStore, summary *RunSummary) error {
	today := j.now()

	settings, err := LoadJobSettings(ctx, tx.Settings())
	if err != nil {
		return err
	}
	if !settings.ProfessorSalaryEnabled {
		return skipRun{reason: "professor salary distribution is disabled"}
	}
	if settings.ProfessorSalaryDay != today.Day() {
		return skipRun{reason: fmt.Sprintf("not the configured salary day (%d)", settings.ProfessorSalaryDay)}
	}
	if !settings.SalaryAmountPerStudent.IsPositive() {
		return skipRun{reason: "salary amount per student is not configured"}
	}

	alreadyPaid, err := tx.Transactions().ExistsDescriptionSince(ctx, descSalaryMonthly, startOfMonth(today))
	if err != nil {
		return err
	}
	if alreadyPaid {
		return skipRun{reason: "professor salary already distributed this month"}
	}

	shares, err := tx.Users().ProfessorShares(ctx, settings.SalaryAmountPerStudent)
	if err != nil {
		return err
	}
	if len(shares) == 0 {
		return skipRun{reason: "no active professor/student pairs to pay"}
	}

	admin, err := tx.Users().FirstActiveByRole(ctx, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("no active admin user to originate salary transfers")
		}
		return err
	}

	groupID := uuid.New()
	for _, share := range shares {
		if !share.Total.IsPositive() {
			continue
		}
		row := models.NewSettlementTransaction(admin.ID, share.ProfessorID, share.Total, descSalaryMonthly, &groupID)
		if err := tx.Transactions().Create(ctx, row); err != nil {
			return err
		}
		summary.Posted++
	}

	credited, err := tx.Transactions().ApplyCreditsByDescriptionSince(ctx, descSalaryMonthly, startOfMonth(today))
	if err != nil {
		return err
	}
	if credited != int64(summary.Posted) {
		return fmt.Errorf("salary credit mismatch: %d rows inserted, %d professors credited", summary.Posted, credited)
	}
	return nil
}
