package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coldreach/outreach-backend/internal/models"
)

type EmailJobRepository struct {
	db *gorm.DB
}

func NewEmailJobRepository(db *gorm.DB) *EmailJobRepository {
	return &EmailJobRepository{db: db}
}

// Create inserts a new email job
func (r *EmailJobRepository) Create(job *models.EmailJob) error {
	return r.db.Create(job).Error
}

// CreateBatch inserts a batch of email jobs
func (r *EmailJobRepository) CreateBatch(jobs []*models.EmailJob) error {
	if len(jobs) == 0 {
		return nil
	}
	return r.db.Create(jobs).Error
}

// Update persists job mutations (status, attempts, last_error, sent_at,
// message_id, scheduled_at). Must run on the same transaction handle that
// claimed the job.
func (r *EmailJobRepository) Update(job *models.EmailJob) error {
	return r.db.Save(job).Error
}

// GetByID retrieves a job by ID
func (r *EmailJobRepository) GetByID(id string) (*models.EmailJob, error) {
	var job models.EmailJob
	err := r.db.First(&job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ClaimDue selects up to limit due pending jobs, oldest first, and locks the
// returned rows for the calling transaction. FOR UPDATE SKIP LOCKED makes
// concurrent claimants partition the due set: a row locked by another
// in-flight worker is silently omitted from this batch instead of blocking.
// Row locks are released when the claiming transaction commits or rolls back.
func (r *EmailJobRepository) ClaimDue(now time.Time, limit int) ([]*models.EmailJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	var jobs []*models.EmailJob
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND scheduled_at <= ?", models.JobPending, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	// Attach leads outside the locking statement; lead rows are mutated through
	// Update calls in the same transaction, not through this snapshot.
	for _, job := range jobs {
		var lead models.Lead
		if err := r.db.First(&lead, "id = ?", job.LeadID).Error; err == nil {
			job.Lead = &lead
		}
	}
	return jobs, nil
}

// CountPending returns the number of pending jobs for a campaign
func (r *EmailJobRepository) CountPending(campaignID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.EmailJob{}).
		Where("campaign_id = ? AND status = ?", campaignID, models.JobPending).
		Count(&count).Error
	return count, err
}

// SkipPendingForLead transitions every pending job of a lead to skipped,
// recording the cancellation reason. Returns the number of jobs affected.
func (r *EmailJobRepository) SkipPendingForLead(leadID, reason string) (int64, error) {
	result := r.db.Model(&models.EmailJob{}).
		Where("lead_id = ? AND status = ?", leadID, models.JobPending).
		Updates(map[string]interface{}{
			"status":     models.JobSkipped,
			"last_error": reason,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// ListByCampaign retrieves jobs for a campaign, newest schedule first
func (r *EmailJobRepository) ListByCampaign(campaignID string, status *models.JobStatus, offset, limit int) ([]*models.EmailJob, error) {
	query := r.db.Where("campaign_id = ?", campaignID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var jobs []*models.EmailJob
	err := query.Order("scheduled_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	return jobs, err
}

// ListByLead retrieves all jobs for a lead ordered by step
func (r *EmailJobRepository) ListByLead(leadID string) ([]*models.EmailJob, error) {
	var jobs []*models.EmailJob
	err := r.db.Where("lead_id = ?", leadID).Order("step_number ASC").Find(&jobs).Error
	return jobs, err
}

// ListFailed retrieves all permanently failed jobs for a campaign with leads attached
func (r *EmailJobRepository) ListFailed(campaignID string) ([]*models.EmailJob, error) {
	var jobs []*models.EmailJob
	err := r.db.Preload("Lead").
		Where("campaign_id = ? AND status = ?", campaignID, models.JobFailed).
		Find(&jobs).Error
	return jobs, err
}

// ResetForRetry puts a failed job back into the pending queue with a clean
// attempt budget. Returns false when the job is not in a failed state.
func (r *EmailJobRepository) ResetForRetry(job *models.EmailJob) (bool, error) {
	if job.Status != models.JobFailed {
		return false, nil
	}

	now := time.Now().UTC()
	job.Status = models.JobPending
	job.ScheduledAt = now
	job.Attempts = 0
	job.LastError = ""
	job.UpdatedAt = now
	return true, r.db.Save(job).Error
}

// ResetAllFailed resets every failed job of a campaign for retry
func (r *EmailJobRepository) ResetAllFailed(campaignID string) (int64, error) {
	now := time.Now().UTC()
	result := r.db.Model(&models.EmailJob{}).
		Where("campaign_id = ? AND status = ?", campaignID, models.JobFailed).
		Updates(map[string]interface{}{
			"status":       models.JobPending,
			"scheduled_at": now,
			"attempts":     0,
			"last_error":   "",
			"updated_at":   now,
		})
	return result.RowsAffected, result.Error
}

// StepSummary aggregates job outcomes per step. Pending counts and next
// schedule exclude jobs whose lead already reached a terminal state, since
// those will be skipped rather than sent.
func (r *EmailJobRepository) StepSummary(campaignID string) ([]models.StepSummary, error) {
	var summaries []models.StepSummary
	err := r.db.Raw(`
		SELECT
			j.step_number,
			COUNT(*) FILTER (WHERE j.status = 'sent')    AS sent,
			COUNT(*) FILTER (WHERE j.status = 'pending'
				AND l.status NOT IN ('replied', 'failed', 'completed')) AS pending,
			COUNT(*) FILTER (WHERE j.status = 'failed')  AS failed,
			COUNT(*) FILTER (WHERE j.status = 'skipped') AS skipped,
			MIN(j.scheduled_at) FILTER (WHERE j.status = 'pending'
				AND l.status NOT IN ('replied', 'failed', 'completed')) AS next_scheduled_at
		FROM email_jobs j
		JOIN leads l ON l.id = j.lead_id
		WHERE j.campaign_id = ?
		GROUP BY j.step_number
		ORDER BY j.step_number
	`, campaignID).Scan(&summaries).Error
	return summaries, err
}
