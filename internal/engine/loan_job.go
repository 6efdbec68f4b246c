package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

// LoanJob charges every active loan not past maturity: interest on the
// remaining balance per the product's payment period, and on the borrower's
// monthly anniversary day a principal installment. Both transfer from the
// student to the configured source (bank) user. One transaction scope covers
// the whole pass.
type LoanJob struct {
	store repository.Store
	now   func() time.Time
}

func NewLoanJob(store repository.Store) *LoanJob {
	return &LoanJob{
		store: store,
		now:   time.Now,
	}
}

func (j *LoanJob) Name() string { return "loan_charges" }

func (j *LoanJob) Run(ctx context.Context) (*RunSummary, error) {
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
		logrus.WithField("job", j.Name()).WithError(err).Error("Loan charges run failed, rolled back")
		return summary, err
	}

	logrus.WithFields(logrus.Fields{
		"job":     j.Name(),
		"posted":  summary.Posted,
		"skipped": summary.Skipped,
	}).Info("Loan charges run completed")
	return summary, nil
}

func (j *LoanJob) runPass(ctx context.Context, tx repository.TxStore, summary *RunSummary) error {
	today := j.now()

	settings, err := LoadJobSettings(ctx, tx.Settings())
	if err != nil {
		return err
	}
	if !settings.HasInterestSource {
		return fmt.Errorf("interest source user is not configured")
	}
	bankID := settings.InterestSourceUserID

	loans, err := tx.Loans().ListActive(ctx, today)
	if err != nil {
		return err
	}

	for _, loan := range loans {
		posted, err := j.chargeInterest(ctx, tx, loan, bankID, today)
		if err != nil {
			return err
		}
		if posted {
			summary.Posted++
		} else {
			summary.Skipped++
		}

		posted, err = j.chargePrincipal(ctx, tx, loan, bankID, today)
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

func (j *LoanJob) chargeInterest(ctx context.Context, tx repository.TxStore, loan *models.Loan, bankID int64, today time.Time) (bool, error) {
	switch loan.PaymentPeriod {
	case models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly:
	default:
		return false, nil
	}
	if !IsPaymentDay(loan.PaymentPeriod, loan.StartDate, today) {
		return false, nil
	}

	amount := PeriodicInterest(loan.RemainingBalance(), loan.AnnualRate, loan.PaymentPeriod)
	if !amount.IsPositive() {
		return false, nil
	}

	description := loanInterestDescription(loan.PaymentPeriod, loan.ProductName)

	alreadyCharged, err := tx.Transactions().ExistsDebitedSince(ctx, loan.StudentID, description, startOfDay(today))
	if err != nil {
		return false, err
	}
	if alreadyCharged {
		return false, nil
	}

	student, err := tx.Users().GetByID(ctx, loan.StudentID)
	if err != nil {
		return false, fmt.Errorf("failed to load borrower: %w", err)
	}
	if !student.HasSufficientBalance(amount) {
		logrus.WithFields(logrus.Fields{
			"job":    j.Name(),
			"loan":   loan.ID,
			"amount": amount,
		}).Warn("Borrower has insufficient balance for loan interest, skipping")
		return false, nil
	}

	if err := postTransfer(ctx, tx, loan.StudentID, bankID, amount, description, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (j *LoanJob) chargePrincipal(ctx context.Context, tx repository.TxStore, loan *models.Loan, bankID int64, today time.Time) (bool, error) {
	if !isMonthlyAnchorDay(loan.StartDate, today) {
		return false, nil
	}

	installment := loan.Installment()
	if !installment.IsPositive() {
		return false, nil
	}

	// Deliberately coarse guard: ANY debit from this student today blocks the
	// installment, not just loan payments. It prevents double-charging on
	// re-entrant runs, but an unrelated same-day debit also suppresses a
	// legitimate installment. Kept for compatibility with the platform's
	// established behavior.
	debitedToday, err := tx.Transactions().ExistsAnyDebitSince(ctx, loan.StudentID, startOfDay(today))
	if err != nil {
		return false, err
	}
	if debitedToday {
		return false, nil
	}

	student, err := tx.Users().GetByID(ctx, loan.StudentID)
	if err != nil {
		return false, fmt.Errorf("failed to load borrower: %w", err)
	}
	if !student.HasSufficientBalance(installment) {
		logrus.WithFields(logrus.Fields{
			"job":    j.Name(),
			"loan":   loan.ID,
			"amount": installment,
		}).Warn("Borrower has insufficient balance for loan installment, skipping")
		return false, nil
	}

	if err := postTransfer(ctx, tx, loan.StudentID, bankID, installment, loanPrincipalDescription(loan.ProductName), nil); err != nil {
		return false, err
	}

	newPaid := loan.PaidAmount.Add(installment)
	remaining := loan.Amount.Sub(newPaid)
	status := loan.Status
	if remaining.LessThanOrEqual(models.PayoffTolerance) {
		// Clear the rounding residue so a settled loan reads paid in full.
		newPaid = loan.Amount
		status = models.LoanPaid
	}
	if err := tx.Loans().UpdateRepayment(ctx, loan.ID, newPaid, status); err != nil {
		return false, err
	}
	loan.PaidAmount = newPaid
	loan.Status = status
	return true, nil
}
