package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/config"
	"github.com/coldreach/outreach-backend/internal/email"
	"github.com/coldreach/outreach-backend/internal/models"
)

// Template placeholders substituted with lead data at render time
const (
	placeholderFirstName = "{{first_name}}"
	placeholderCompany   = "{{company}}"
	placeholderEmail     = "{{email}}"

	fallbackFirstName = "there"
	fallbackCompany   = "your company"
)

// JobService executes claimed email jobs: it validates preconditions,
// renders content, invokes the provider, interprets the outcome and drives
// the job/lead state machines. It also owns next-step sequencing.
type JobService struct {
	jobs      JobStore
	leads     LeadStore
	campaigns CampaignStore
	templates TemplateStore
	users     UserStore

	provider email.Provider
	retry    *RetryPolicy
	events   EventPublisher

	pollInterval time.Duration
	maxSteps     int

	now func() time.Time
}

func NewJobService(
	jobs JobStore,
	leads LeadStore,
	campaigns CampaignStore,
	templates TemplateStore,
	users UserStore,
	provider email.Provider,
	retry *RetryPolicy,
	events EventPublisher,
	cfg *config.Settings,
) *JobService {
	return &JobService{
		jobs:         jobs,
		leads:        leads,
		campaigns:    campaigns,
		templates:    templates,
		users:        users,
		provider:     provider,
		retry:        retry,
		events:       events,
		pollInterval: cfg.PollInterval,
		maxSteps:     cfg.MaxCampaignSteps,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ClaimDueJobs claims a batch of due jobs for this worker. Must be called
// within the transaction that will also execute the batch.
func (s *JobService) ClaimDueJobs(limit int) ([]*models.EmailJob, error) {
	return s.jobs.ClaimDue(s.now(), limit)
}

// validateForExecution checks whether a job should still run. Returns
// (ok, reason) for business outcomes; the error return is reserved for
// storage failures.
func (s *JobService) validateForExecution(job *models.EmailJob) (bool, string, error) {
	if job.Lead == nil {
		lead, err := s.leads.GetByID(job.LeadID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "", fmt.Errorf("failed to load lead: %w", err)
		}
		job.Lead = lead
	}

	if job.Lead == nil {
		return false, "lead not found", nil
	}

	if job.Lead.Status.IsTerminal() {
		return false, fmt.Sprintf("lead is in terminal state: %s", job.Lead.Status), nil
	}

	campaign, err := s.campaigns.GetByID(job.CampaignID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, "", fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return false, "campaign not found", nil
	}

	if campaign.Status != models.CampaignActive {
		return false, fmt.Sprintf("campaign is not active: %s", campaign.Status), nil
	}

	if s.retry.IsExhausted(job.Attempts) {
		return false, fmt.Sprintf("max retry attempts (%d) exceeded", s.retry.MaxAttempts()), nil
	}

	return true, "", nil
}

// ExecuteJob runs one claimed job end to end. The bool result reports
// whether the email was sent; the error return is reserved for storage
// failures, which abort the surrounding tick. All delivery and validation
// outcomes are recorded on the job itself.
func (s *JobService) ExecuteJob(job *models.EmailJob) (bool, error) {
	ok, reason, err := s.validateForExecution(job)
	if err != nil {
		return false, err
	}
	if !ok {
		// A temporarily inactive campaign keeps the job pending so it picks
		// back up on resume; every other validation failure is final.
		if strings.HasPrefix(reason, "campaign is not active") {
			return false, s.deferJob(job, reason)
		}
		return false, s.skipJob(job, reason)
	}

	template, err := s.templates.GetByStep(job.CampaignID, job.StepNumber)
	if err != nil {
		return false, fmt.Errorf("failed to load template: %w", err)
	}
	if template == nil {
		return false, s.failJobMissingTemplate(job)
	}

	subject := s.substitutePlaceholders(template.Subject, job.Lead)
	body := s.substitutePlaceholders(template.Body, job.Lead)

	body, err = s.appendOwnerSignature(body, job.CampaignID)
	if err != nil {
		return false, err
	}

	// Re-validate immediately before the network call. A reply or pause can
	// land between the first validation and here; catching it now prevents
	// the send instead of merely recording it afterwards.
	ok, reason, err = s.validateForExecution(job)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, s.skipJob(job, fmt.Sprintf("skipped at final validation: %s", reason))
	}

	result := s.safeSend(job, subject, body, "")
	if !result.Success {
		return false, s.handleSendFailure(job, result.Error)
	}

	now := s.now()
	job.Status = models.JobSent
	job.SentAt = &now
	job.MessageID = result.MessageID
	job.LastError = ""
	job.UpdatedAt = now
	if err := s.jobs.Update(job); err != nil {
		return false, fmt.Errorf("failed to persist sent job: %w", err)
	}

	// First successful touch moves the lead to contacted; later steps leave
	// the status alone.
	if job.Lead.Status == models.LeadPending {
		job.Lead.Status = models.LeadContacted
		job.Lead.UpdatedAt = now
		if err := s.leads.Update(job.Lead); err != nil {
			return false, fmt.Errorf("failed to update lead status: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"lead_email": job.Lead.Email,
		"message_id": job.MessageID,
	}).Info("Job sent successfully")

	s.publish("email.sent", map[string]interface{}{
		"job_id":      job.ID,
		"campaign_id": job.CampaignID,
		"lead_id":     job.LeadID,
		"step_number": job.StepNumber,
		"message_id":  job.MessageID,
	})

	if err := s.scheduleNextStep(job); err != nil {
		return false, err
	}
	return true, nil
}

// safeSend invokes the provider, converting transport errors and panics into
// failure results so a misbehaving provider can never abort the batch.
func (s *JobService) safeSend(job *models.EmailJob, subject, body, fromOverride string) (result email.Result) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("job_id", job.ID).Errorf("Provider panicked during send: %v", r)
			result = email.Result{Success: false, Error: fmt.Sprintf("provider error: panic: %v", r)}
		}
	}()

	meta := email.Metadata{
		CampaignID: job.CampaignID,
		LeadID:     job.LeadID,
		StepNumber: job.StepNumber,
	}

	result, err := s.provider.Send(job.Lead.Email, subject, body, meta, fromOverride)
	if err != nil {
		logrus.WithField("job_id", job.ID).Errorf("Exception during send: %v", err)
		return email.Result{Success: false, Error: fmt.Sprintf("provider error: %s", err.Error())}
	}
	if !result.Success && result.Error == "" {
		result.Error = "unknown provider error"
	}
	return result
}

// substitutePlaceholders fills template placeholders from lead data with the
// documented fallbacks for absent fields
func (s *JobService) substitutePlaceholders(template string, lead *models.Lead) string {
	firstName := lead.FirstName
	if firstName == "" {
		firstName = fallbackFirstName
	}
	company := lead.Company
	if company == "" {
		company = fallbackCompany
	}

	result := strings.ReplaceAll(template, placeholderFirstName, firstName)
	result = strings.ReplaceAll(result, placeholderCompany, company)
	result = strings.ReplaceAll(result, placeholderEmail, lead.Email)
	return result
}

// appendOwnerSignature appends the campaign owner's email signature to the
// body. A missing campaign or owner leaves the body untouched.
func (s *JobService) appendOwnerSignature(body, campaignID string) (string, error) {
	campaign, err := s.campaigns.GetByID(campaignID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return body, fmt.Errorf("failed to load campaign for signature: %w", err)
	}
	if campaign == nil {
		return body, nil
	}

	user, err := s.users.GetByID(campaign.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return body, fmt.Errorf("failed to load campaign owner: %w", err)
	}
	if user == nil {
		return body, nil
	}

	if user.EmailSignature != "" {
		body = body + "<br><br>" + user.EmailSignature
	}
	return body, nil
}

// deferJob pushes a pending job forward by one poll interval without
// spending an attempt. Used when the campaign is temporarily inactive.
func (s *JobService) deferJob(job *models.EmailJob, reason string) error {
	now := s.now()
	job.LastError = reason
	job.ScheduledAt = now.Add(s.pollInterval)
	job.UpdatedAt = now
	if err := s.jobs.Update(job); err != nil {
		return fmt.Errorf("failed to defer job: %w", err)
	}

	logrus.WithField("job_id", job.ID).Infof("Job deferred: %s", reason)
	return nil
}

// skipJob marks a job permanently skipped with the recorded reason
func (s *JobService) skipJob(job *models.EmailJob, reason string) error {
	now := s.now()
	job.Status = models.JobSkipped
	job.LastError = reason
	job.UpdatedAt = now
	if err := s.jobs.Update(job); err != nil {
		return fmt.Errorf("failed to skip job: %w", err)
	}

	logrus.WithField("job_id", job.ID).Infof("Job skipped: %s", reason)
	return nil
}

// failJobMissingTemplate fails a job whose template is gone. This is a
// configuration error, not a delivery error, so no retry budget is spent.
func (s *JobService) failJobMissingTemplate(job *models.EmailJob) error {
	now := s.now()
	job.Status = models.JobFailed
	job.LastError = fmt.Sprintf("template not found for step %d", job.StepNumber)
	job.UpdatedAt = now
	if err := s.jobs.Update(job); err != nil {
		return fmt.Errorf("failed to persist missing-template failure: %w", err)
	}

	logrus.WithField("job_id", job.ID).Error("Job failed: template not found")
	return nil
}

// handleSendFailure books one failed attempt: either reschedules with
// backoff or, once the budget is exhausted, fails the job and its lead
func (s *JobService) handleSendFailure(job *models.EmailJob, sendErr string) error {
	now := s.now()
	job.Attempts++
	job.LastError = sendErr
	job.UpdatedAt = now

	if s.retry.IsExhausted(job.Attempts) {
		job.Status = models.JobFailed

		if job.Lead != nil && !job.Lead.Status.IsTerminal() {
			job.Lead.Status = models.LeadFailed
			job.Lead.UpdatedAt = now
			if err := s.leads.Update(job.Lead); err != nil {
				return fmt.Errorf("failed to fail lead: %w", err)
			}
		}

		logrus.WithField("job_id", job.ID).Errorf(
			"Job failed permanently after %d attempts: %s", job.Attempts, sendErr)
	} else {
		delay := s.retry.NextDelay(job.Attempts - 1)
		job.ScheduledAt = now.Add(delay)

		logrus.WithField("job_id", job.ID).Warnf(
			"Job attempt %d failed, retrying in %s: %s", job.Attempts, delay, sendErr)
	}

	if err := s.jobs.Update(job); err != nil {
		return fmt.Errorf("failed to persist send failure: %w", err)
	}

	s.publish("email.failed", map[string]interface{}{
		"job_id":      job.ID,
		"campaign_id": job.CampaignID,
		"lead_id":     job.LeadID,
		"step_number": job.StepNumber,
		"attempts":    job.Attempts,
		"error":       sendErr,
		"permanent":   job.Status == models.JobFailed,
	})
	return nil
}

// scheduleNextStep queues the follow-up job after a successful send, or
// completes the lead when the sequence is over. This is the only place new
// jobs are created outside of campaign launch.
func (s *JobService) scheduleNextStep(completed *models.EmailJob) error {
	nextStep := completed.StepNumber + 1

	if nextStep > s.maxSteps {
		return s.completeLead(completed)
	}

	template, err := s.templates.GetByStep(completed.CampaignID, nextStep)
	if err != nil {
		return fmt.Errorf("failed to look up next template: %w", err)
	}
	if template == nil {
		// No further authored step; the lead has received everything.
		return s.completeLead(completed)
	}

	now := s.now()
	next := &models.EmailJob{
		CampaignID:  completed.CampaignID,
		LeadID:      completed.LeadID,
		StepNumber:  nextStep,
		ScheduledAt: now.Add(time.Duration(template.DelayMinutes) * time.Minute),
		Status:      models.JobPending,
	}
	if err := s.jobs.Create(next); err != nil {
		return fmt.Errorf("failed to schedule next step: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"lead_id":      completed.LeadID,
		"step_number":  nextStep,
		"scheduled_at": next.ScheduledAt,
	}).Info("Scheduled next step")
	return nil
}

func (s *JobService) completeLead(job *models.EmailJob) error {
	if job.Lead == nil || job.Lead.Status.IsTerminal() {
		return nil
	}

	job.Lead.Status = models.LeadCompleted
	job.Lead.UpdatedAt = s.now()
	if err := s.leads.Update(job.Lead); err != nil {
		return fmt.Errorf("failed to complete lead: %w", err)
	}

	logrus.WithField("lead_id", job.LeadID).Info("Lead completed all steps")
	return nil
}

func (s *JobService) publish(event string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(event, payload); err != nil {
		logrus.Warnf("Failed to publish %s event: %v", event, err)
	}
}

// GetJobsForCampaign lists jobs for reporting endpoints
func (s *JobService) GetJobsForCampaign(campaignID string, status *models.JobStatus, offset, limit int) ([]*models.EmailJob, error) {
	return s.jobs.ListByCampaign(campaignID, status, offset, limit)
}

// GetJobsForLead lists all jobs for one lead ordered by step
func (s *JobService) GetJobsForLead(leadID string) ([]*models.EmailJob, error) {
	return s.jobs.ListByLead(leadID)
}

// GetFailedJobs lists permanently failed jobs for a campaign
func (s *JobService) GetFailedJobs(campaignID string) ([]*models.EmailJob, error) {
	return s.jobs.ListFailed(campaignID)
}

// GetStepSummary aggregates job outcomes per step for a campaign
func (s *JobService) GetStepSummary(campaignID string) ([]models.StepSummary, error) {
	return s.jobs.StepSummary(campaignID)
}

// RetryFailedJob resets one failed job back into the queue
func (s *JobService) RetryFailedJob(jobID string) (bool, error) {
	job, err := s.jobs.GetByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load job: %w", err)
	}

	reset, err := s.jobs.ResetForRetry(job)
	if err != nil {
		return false, fmt.Errorf("failed to reset job: %w", err)
	}
	if reset {
		logrus.WithField("job_id", jobID).Info("Retrying failed job")
	}
	return reset, nil
}

// RetryAllFailedJobs resets every failed job of a campaign
func (s *JobService) RetryAllFailedJobs(campaignID string) (int64, error) {
	count, err := s.jobs.ResetAllFailed(campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed jobs: %w", err)
	}

	logrus.WithField("campaign_id", campaignID).Infof("Retrying %d failed jobs", count)
	return count, nil
}
