package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

// InterestJob posts savings interest: for every account whose window covers
// today, it decides whether today is a payment day under the product's
// payment period, computes the interest and transfers it from the configured
// source user to the student. The whole pass shares one transaction scope, so
// one failing account rolls back every posting of the run.
type InterestJob struct {
	store repository.Store
	now   func() time.Time
}

func NewInterestJob(store repository.Store) *InterestJob {
	return &InterestJob{
		store: store,
		now:   time.Now,
	}
}

func (j *InterestJob) Name() string { return "savings_interest" }

func (j *InterestJob) Run(ctx context.Context) (*RunSummary, error) {
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
		logrus.WithField("job", j.Name()).WithError(err).Error("Savings interest run failed, rolled back")
		return summary, err
	}

	logrus.WithFields(logrus.Fields{
		"job":     j.Name(),
		"posted":  summary.Posted,
		"skipped": summary.Skipped,
	}).Info("Savings interest run completed")
	return summary, nil
}

func (j *InterestJob) runPass(ctx context.Context, tx repository.TxStore, summary *RunSummary) error {
	today := j.now()

	settings, err := LoadJobSettings(ctx, tx.Settings())
	if err != nil {
		return err
	}
	if !settings.HasInterestSource {
		return fmt.Errorf("interest source user is not configured")
	}

	accounts, err := tx.Savings().ListEligible(ctx, today)
	if err != nil {
		return err
	}

	for _, account := range accounts {
		posted, err := j.settleAccount(ctx, tx, account, settings.InterestSourceUserID, today)
		if err != nil {
			return err
		}
		if posted {
			summary.Posted++
		} else {
			summary.Skipped++
		}
	}
	return nil
}

func (j *InterestJob) settleAccount(ctx context.Context, tx repository.TxStore, account *models.SavingsAccount, sourceID int64, today time.Time) (bool, error) {
	var amount decimal.Decimal
	if account.PaymentPeriod == models.PeriodAtMaturity {
		if !SameDate(today, account.MaturityDate) {
			return false, nil
		}
		amount = MaturityInterest(account.Balance, account.AnnualRate, account.StartDate, account.MaturityDate)
	} else {
		if !IsPaymentDay(account.PaymentPeriod, account.StartDate, today) {
			return false, nil
		}
		amount = PeriodicInterest(account.Balance, account.AnnualRate, account.PaymentPeriod)
	}
	if !amount.IsPositive() {
		return false, nil
	}

	description := savingsInterestDescription(account.PaymentPeriod, account.ProductName)

	alreadyPaid, err := tx.Transactions().ExistsCreditedSince(ctx, account.StudentID, description, startOfDay(today))
	if err != nil {
		return false, err
	}
	if alreadyPaid {
		return false, nil
	}

	source, err := tx.Users().GetByID(ctx, sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to load interest source user: %w", err)
	}
	if !source.HasSufficientBalance(amount) {
		logrus.WithFields(logrus.Fields{
			"job":     j.Name(),
			"account": account.ID,
			"amount":  amount,
			"source":  sourceID,
		}).Warn("Interest source has insufficient balance, skipping account")
		return false, nil
	}

	if err := postTransfer(ctx, tx, sourceID, account.StudentID, amount, description, nil); err != nil {
		return false, err
	}
	return true, nil
}
