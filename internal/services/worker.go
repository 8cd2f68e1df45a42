package services

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/config"
	"github.com/coldreach/outreach-backend/internal/database/repository"
	"github.com/coldreach/outreach-backend/internal/email"
	"github.com/coldreach/outreach-backend/internal/models"
)

// EmailWorker polls for due jobs and executes them. Each tick runs inside a
// single database transaction: the row locks taken by the claim query are
// held until the batch commits, so concurrent workers never see each other's
// jobs. Completion checks run after commit so a crashed tick cannot complete
// a campaign whose jobs rolled back.
type EmailWorker struct {
	db       *gorm.DB
	cfg      *config.Settings
	provider email.Provider
	events   EventPublisher

	// tick is overridable in tests
	tick func() error

	cancel context.CancelFunc
	done   chan struct{}
}

func NewEmailWorker(db *gorm.DB, cfg *config.Settings, provider email.Provider, events EventPublisher) *EmailWorker {
	w := &EmailWorker{
		db:       db,
		cfg:      cfg,
		provider: provider,
		events:   events,
		done:     make(chan struct{}),
	}
	w.tick = w.processDueJobs
	return w
}

// Start launches the polling loop in its own goroutine
func (w *EmailWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go func() {
		defer close(w.done)

		logrus.WithFields(logrus.Fields{
			"poll_interval": w.cfg.PollInterval,
			"batch_size":    w.cfg.BatchSize,
		}).Info("Email worker started")

		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()

		for {
			if err := w.tick(); err != nil {
				logrus.WithError(err).Error("Worker tick failed")
				sentry.CaptureException(err)
			}

			select {
			case <-ctx.Done():
				logrus.Info("Email worker stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight tick to finish
func (w *EmailWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}

// processDueJobs claims and executes one batch of due jobs, then runs the
// campaign completion check for every campaign the batch touched.
func (w *EmailWorker) processDueJobs() error {
	touched := make(map[string]bool)

	err := w.db.Transaction(func(tx *gorm.DB) error {
		jobs := repository.NewEmailJobRepository(tx)
		leads := repository.NewLeadRepository(tx)
		campaigns := repository.NewCampaignRepository(tx)
		templates := repository.NewEmailTemplateRepository(tx)
		users := repository.NewUserRepository(tx)

		jobService := NewJobService(
			jobs, leads, campaigns, templates, users,
			w.provider,
			NewRetryPolicy(w.cfg.MaxRetryAttempts),
			w.events,
			w.cfg,
		)

		batch, err := jobService.ClaimDueJobs(w.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to claim due jobs: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		logrus.WithField("count", len(batch)).Info("Processing due jobs")

		for _, job := range batch {
			touched[job.CampaignID] = true
			if err := w.executeOne(jobService, job); err != nil {
				// One bad job must not poison the batch
				logrus.WithError(err).WithField("job_id", job.ID).
					Error("Job execution failed")
				sentry.CaptureException(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for campaignID := range touched {
		if err := w.checkCompletion(campaignID); err != nil {
			logrus.WithError(err).WithField("campaign_id", campaignID).
				Warn("Completion check failed")
			sentry.CaptureException(err)
		}
	}
	return nil
}

// executeOne runs a single job, converting panics into errors so the rest of
// the batch still runs.
func (w *EmailWorker) executeOne(jobService *JobService, job *models.EmailJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic executing job %s: %v", job.ID, r)
		}
	}()
	_, err = jobService.ExecuteJob(job)
	return err
}

// checkCompletion runs in its own transaction, after the batch has committed
func (w *EmailWorker) checkCompletion(campaignID string) error {
	campaigns := repository.NewCampaignRepository(w.db)
	leads := repository.NewLeadRepository(w.db)
	jobs := repository.NewEmailJobRepository(w.db)
	templates := repository.NewEmailTemplateRepository(w.db)

	campaignService := NewCampaignService(campaigns, leads, jobs, templates)
	completed, err := campaignService.CheckCompletion(campaignID)
	if err != nil {
		return err
	}
	if completed {
		logrus.WithField("campaign_id", campaignID).Info("Campaign auto-completed")
	}
	return nil
}
