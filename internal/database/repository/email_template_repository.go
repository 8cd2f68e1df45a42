package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/models"
)

type EmailTemplateRepository struct {
	db *gorm.DB
}

func NewEmailTemplateRepository(db *gorm.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

// Create creates a new template
func (r *EmailTemplateRepository) Create(template *models.EmailTemplate) error {
	return r.db.Create(template).Error
}

// GetByID retrieves a template by ID
func (r *EmailTemplateRepository) GetByID(id string) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	err := r.db.First(&template, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetByStep retrieves the template for one step of a campaign. A missing
// template is a valid outcome and returns (nil, nil), not an error.
func (r *EmailTemplateRepository) GetByStep(campaignID string, stepNumber int) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	err := r.db.Where("campaign_id = ? AND step_number = ?", campaignID, stepNumber).
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// ListByCampaign retrieves all templates for a campaign ordered by step
func (r *EmailTemplateRepository) ListByCampaign(campaignID string) ([]*models.EmailTemplate, error) {
	var templates []*models.EmailTemplate
	err := r.db.Where("campaign_id = ?", campaignID).
		Order("step_number ASC").
		Find(&templates).Error
	return templates, err
}

// Update updates a template
func (r *EmailTemplateRepository) Update(template *models.EmailTemplate) error {
	return r.db.Save(template).Error
}

// Delete deletes a template by ID
func (r *EmailTemplateRepository) Delete(id string) error {
	return r.db.Delete(&models.EmailTemplate{}, "id = ?", id).Error
}
