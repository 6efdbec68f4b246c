package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

// inactivityThreshold is how long a student must be idle before the fee
// applies.
const inactivityThreshold = 30 * 24 * time.Hour

// InactivityJob charges the configured percentage fee on the balance of
// active students idle for more than 30 days, then resets their activity
// timestamp. The reset is what prevents re-charging on the next daily tick,
// not a description/date guard.
type InactivityJob struct {
	store repository.Store
	now   func() time.Time
}

func NewInactivityJob(store repository.Store) *InactivityJob {
	return &InactivityJob{
		store: store,
		now:   time.Now,
	}
}

func (j *InactivityJob) Name() string { return "inactivity_fee" }

func (j *InactivityJob) Run(ctx context.Context) (*RunSummary, error) {
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
		logrus.WithField("job", j.Name()).WithError(err).Error("Inactivity fee run failed, rolled back")
		return summary, err
	}

	logrus.WithFields(logrus.Fields{
		"job":     j.Name(),
		"posted":  summary.Posted,
		"skipped": summary.Skipped,
	}).Info("Inactivity fee run completed")
	return summary, nil
}

func (j *InactivityJob) runPass(ctx context.Context, tx repository.TxStore, summary *RunSummary) error {
	now := j.now()

	settings, err := LoadJobSettings(ctx, tx.Settings())
	if err != nil {
		return err
	}
	if !settings.InactivityFeePercentage.IsPositive() {
		return skipRun{reason: "inactivity fee percentage is not configured"}
	}

	destinationID, err := j.resolveDestination(ctx, tx, settings)
	if err != nil {
		return err
	}

	students, err := tx.Users().ListInactiveStudents(ctx, now.Add(-inactivityThreshold))
	if err != nil {
		return err
	}

	for _, student := range students {
		fee := student.Balance.Mul(settings.InactivityFeePercentage).Div(hundred).Round(2)
		if !fee.IsPositive() {
			summary.Skipped++
			continue
		}
		if err := postTransfer(ctx, tx, student.ID, destinationID, fee, descInactivityFee, nil); err != nil {
			return err
		}
		// Touching the activity timestamp is what keeps the next daily run
		// from charging this student again.
		if err := tx.Users().TouchActivity(ctx, student.ID, now); err != nil {
			return err
		}
		summary.Posted++
	}
	return nil
}

func (j *InactivityJob) resolveDestination(ctx context.Context, tx repository.TxStore, settings *JobSettings) (int64, error) {
	if settings.HasInactivityDest {
		return settings.InactivityDestinationID, nil
	}

	// Fallback kept for compatibility with the platform's behavior when the
	// destination setting is absent. Almost certainly a misconfiguration, so
	// it is logged loudly every run.
	fallback, err := tx.Users().FirstActiveByRole(ctx, models.RoleStudent)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, errors.New("no inactivity fee destination configured and no active student to fall back to")
		}
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"job":      j.Name(),
		"fallback": fallback.ID,
	}).Warn("ivaDestinationUserId is not configured; falling back to first active student")
	return fallback.ID, nil
}
