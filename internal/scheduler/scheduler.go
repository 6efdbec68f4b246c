package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"valcoin-api/internal/engine"
	"valcoin-api/internal/events"
	"valcoin-api/internal/monitoring"
)

// Scheduler registers the settlement jobs against fixed cron triggers. Each
// job runs on its own schedule with no coordination between them; re-entrant
// safety comes from the jobs' own idempotency guards, not from locking here.
type Scheduler struct {
	cron      *cron.Cron
	metrics   *monitoring.SettlementMetrics
	publisher events.Publisher
}

func New(metrics *monitoring.SettlementMetrics, publisher events.Publisher) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		metrics:   metrics,
		publisher: publisher,
	}
}

// Register adds a job under the given crontab expression.
func (s *Scheduler) Register(spec string, job engine.Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s (%q): %w", job.Name(), spec, err)
	}
	logrus.WithFields(logrus.Fields{
		"job":  job.Name(),
		"cron": spec,
	}).Info("Settlement job scheduled")
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.Info("Settlement scheduler started")
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("Settlement scheduler stopped")
}

func (s *Scheduler) runJob(job engine.Job) {
	// A failed run is already logged by the job; the next tick is the only
	// retry.
	summary, _ := job.Run(context.Background())
	if s.metrics != nil {
		s.metrics.RecordRun(summary)
	}
	if s.publisher != nil {
		if pubErr := s.publisher.PublishRunEvent(context.Background(), summary); pubErr != nil {
			logrus.WithField("job", job.Name()).WithError(pubErr).Warn("Failed to publish settlement run event")
		}
	}
}
