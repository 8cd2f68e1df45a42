package repository

import (
	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/models"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// Create creates a new lead
func (r *LeadRepository) Create(lead *models.Lead) error {
	return r.db.Create(lead).Error
}

// CreateBatch inserts a batch of leads
func (r *LeadRepository) CreateBatch(leads []*models.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	return r.db.Create(leads).Error
}

// GetByID retrieves a lead by ID
func (r *LeadRepository) GetByID(id string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// Update updates a lead
func (r *LeadRepository) Update(lead *models.Lead) error {
	return r.db.Save(lead).Error
}

// Delete deletes a lead by ID
func (r *LeadRepository) Delete(id string) error {
	return r.db.Delete(&models.Lead{}, "id = ?", id).Error
}

// ListByCampaign retrieves leads for a campaign with optional status filter
func (r *LeadRepository) ListByCampaign(campaignID string, status *models.LeadStatus, offset, limit int) ([]*models.Lead, error) {
	query := r.db.Where("campaign_id = ?", campaignID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var leads []*models.Lead
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&leads).Error
	return leads, err
}

// ListPendingByCampaign retrieves all pending leads for a campaign
func (r *LeadRepository) ListPendingByCampaign(campaignID string) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.db.Where("campaign_id = ? AND status = ?", campaignID, models.LeadPending).
		Find(&leads).Error
	return leads, err
}

// ListEmails returns all lead email addresses already present in a campaign
func (r *LeadRepository) ListEmails(campaignID string) ([]string, error) {
	var emails []string
	err := r.db.Model(&models.Lead{}).
		Where("campaign_id = ?", campaignID).
		Pluck("email", &emails).Error
	return emails, err
}

// CountActive returns the number of leads still in a non-terminal state
func (r *LeadRepository) CountActive(campaignID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lead{}).
		Where("campaign_id = ? AND status IN ?", campaignID,
			[]models.LeadStatus{models.LeadPending, models.LeadContacted}).
		Count(&count).Error
	return count, err
}

// CountByStatus returns lead counts grouped by status for a campaign
func (r *LeadRepository) CountByStatus(campaignID string) (map[models.LeadStatus]int64, error) {
	type row struct {
		Status models.LeadStatus
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Lead{}).
		Select("status, COUNT(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.LeadStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
