package services

import (
	"time"

	"github.com/coldreach/outreach-backend/internal/models"
)

// Narrow store contracts owned by the services that consume them. The gorm
// repositories satisfy these; tests substitute in-memory fakes. Everything is
// injected explicitly — no package-level singletons.

type CampaignStore interface {
	Create(campaign *models.Campaign) error
	GetByID(id string) (*models.Campaign, error)
	GetByUserIDAndID(userID, campaignID string) (*models.Campaign, error)
	ListByUserID(userID string, offset, limit int) ([]*models.Campaign, error)
	Update(campaign *models.Campaign) error
	DeleteByUserIDAndID(userID, campaignID string) error
}

type LeadStore interface {
	Create(lead *models.Lead) error
	CreateBatch(leads []*models.Lead) error
	GetByID(id string) (*models.Lead, error)
	Update(lead *models.Lead) error
	Delete(id string) error
	ListByCampaign(campaignID string, status *models.LeadStatus, offset, limit int) ([]*models.Lead, error)
	ListPendingByCampaign(campaignID string) ([]*models.Lead, error)
	ListEmails(campaignID string) ([]string, error)
	CountActive(campaignID string) (int64, error)
	CountByStatus(campaignID string) (map[models.LeadStatus]int64, error)
}

type JobStore interface {
	Create(job *models.EmailJob) error
	CreateBatch(jobs []*models.EmailJob) error
	Update(job *models.EmailJob) error
	GetByID(id string) (*models.EmailJob, error)
	ClaimDue(now time.Time, limit int) ([]*models.EmailJob, error)
	CountPending(campaignID string) (int64, error)
	SkipPendingForLead(leadID, reason string) (int64, error)
	ListByCampaign(campaignID string, status *models.JobStatus, offset, limit int) ([]*models.EmailJob, error)
	ListByLead(leadID string) ([]*models.EmailJob, error)
	ListFailed(campaignID string) ([]*models.EmailJob, error)
	ResetForRetry(job *models.EmailJob) (bool, error)
	ResetAllFailed(campaignID string) (int64, error)
	StepSummary(campaignID string) ([]models.StepSummary, error)
}

type TemplateStore interface {
	Create(template *models.EmailTemplate) error
	GetByID(id string) (*models.EmailTemplate, error)
	GetByStep(campaignID string, stepNumber int) (*models.EmailTemplate, error)
	ListByCampaign(campaignID string) ([]*models.EmailTemplate, error)
	Update(template *models.EmailTemplate) error
	Delete(id string) error
}

type UserStore interface {
	GetByID(id string) (*models.User, error)
}

// EventPublisher broadcasts delivery lifecycle events to interested
// consumers. Implementations must be safe for concurrent use; a nil
// publisher disables events.
type EventPublisher interface {
	Publish(event string, payload map[string]interface{}) error
}
