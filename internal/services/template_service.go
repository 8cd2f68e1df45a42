package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/models"
)

var ErrTemplateNotFound = errors.New("template not found")

// minutesPerDay converts day-granular delays to the stored minute unit
const minutesPerDay = 24 * 60

// TemplateService manages the per-step templates of a campaign sequence.
// Templates are only editable while the campaign is a draft; once launched
// the sequence is frozen.
type TemplateService struct {
	templates TemplateStore
	campaigns CampaignStorer
	maxSteps  int
}

func NewTemplateService(templates TemplateStore, campaigns CampaignStorer, maxSteps int) *TemplateService {
	return &TemplateService{
		templates: templates,
		campaigns: campaigns,
		maxSteps:  maxSteps,
	}
}

// CreateTemplate adds a step template to a draft campaign. Each step number
// can hold at most one template.
func (s *TemplateService) CreateTemplate(userID, campaignID string, req *models.CreateTemplateRequest) (*models.EmailTemplate, error) {
	campaign, err := s.campaigns.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignDraft {
		return nil, ErrNotDraft
	}

	if req.StepNumber < 1 || req.StepNumber > s.maxSteps {
		return nil, fmt.Errorf("step number must be between 1 and %d", s.maxSteps)
	}

	existing, err := s.templates.GetByStep(campaignID, req.StepNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing template: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("campaign already has a template for step %d", req.StepNumber)
	}

	delay, err := resolveDelay(req.DelayMinutes, req.DelayDays, req.StepNumber)
	if err != nil {
		return nil, err
	}

	template := &models.EmailTemplate{
		CampaignID:   campaignID,
		StepNumber:   req.StepNumber,
		Subject:      req.Subject,
		Body:         req.Body,
		DelayMinutes: delay,
	}
	if err := s.templates.Create(template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaignID,
		"step":        req.StepNumber,
	}).Info("Created template")
	return template, nil
}

// ListTemplates lists a campaign's templates in step order
func (s *TemplateService) ListTemplates(userID, campaignID string) ([]*models.EmailTemplate, error) {
	if _, err := s.campaigns.GetCampaign(userID, campaignID); err != nil {
		return nil, err
	}
	templates, err := s.templates.ListByCampaign(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// UpdateTemplate edits a step template on a draft campaign
func (s *TemplateService) UpdateTemplate(userID, campaignID, templateID string, req *models.UpdateTemplateRequest) (*models.EmailTemplate, error) {
	campaign, err := s.campaigns.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignDraft {
		return nil, ErrNotDraft
	}

	template, err := s.getOwned(campaignID, templateID)
	if err != nil {
		return nil, err
	}

	if req.Subject != "" {
		template.Subject = req.Subject
	}
	if req.Body != "" {
		template.Body = req.Body
	}
	if req.DelayMinutes != nil || req.DelayDays != nil {
		delay, err := resolveDelay(req.DelayMinutes, req.DelayDays, template.StepNumber)
		if err != nil {
			return nil, err
		}
		template.DelayMinutes = delay
	}

	if err := s.templates.Update(template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// DeleteTemplate removes a step template from a draft campaign
func (s *TemplateService) DeleteTemplate(userID, campaignID, templateID string) error {
	campaign, err := s.campaigns.GetCampaign(userID, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != models.CampaignDraft {
		return ErrNotDraft
	}

	if _, err := s.getOwned(campaignID, templateID); err != nil {
		return err
	}

	if err := s.templates.Delete(templateID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (s *TemplateService) getOwned(campaignID, templateID string) (*models.EmailTemplate, error) {
	template, err := s.templates.GetByID(templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if template.CampaignID != campaignID {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

// resolveDelay reconciles the two delay inputs. Minutes win when both are
// given. Step 1 is sent at launch, so its delay must stay zero.
func resolveDelay(minutes, days *int, stepNumber int) (int, error) {
	delay := 0
	switch {
	case minutes != nil:
		delay = *minutes
	case days != nil:
		delay = *days * minutesPerDay
	}
	if delay < 0 {
		return 0, errors.New("delay cannot be negative")
	}
	if stepNumber == 1 && delay != 0 {
		return 0, errors.New("step 1 cannot have a delay")
	}
	return delay, nil
}
