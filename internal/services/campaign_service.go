package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/models"
)

// Sentinel errors matched by handlers for status-code mapping
var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrNotDraft         = errors.New("campaign is not in draft status")
	ErrNoTemplates      = errors.New("campaign must have at least one email template")
	ErrNoLeads          = errors.New("campaign must have at least one lead")
)

// CampaignService owns the campaign lifecycle: CRUD while drafting, the
// launch that seeds the step-1 job batch, pause/resume, and the completion
// detector.
type CampaignService struct {
	campaigns CampaignStore
	leads     LeadStore
	jobs      JobStore
	templates TemplateStore
}

func NewCampaignService(
	campaigns CampaignStore,
	leads LeadStore,
	jobs JobStore,
	templates TemplateStore,
) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		leads:     leads,
		jobs:      jobs,
		templates: templates,
	}
}

// CreateCampaign creates a new campaign in draft status
func (s *CampaignService) CreateCampaign(userID string, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	tone := req.Tone
	if tone == "" {
		tone = models.ToneProfessional
	}
	if !models.ValidTone(tone) {
		return nil, fmt.Errorf("unsupported tone: %s", tone)
	}

	campaign := &models.Campaign{
		UserID: userID,
		Name:   req.Name,
		Pitch:  req.Pitch,
		Tone:   tone,
		Status: models.CampaignDraft,
	}
	if err := s.campaigns.Create(campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	logrus.WithField("campaign_id", campaign.ID).Infof("Created campaign %q", campaign.Name)
	return campaign, nil
}

// GetCampaign retrieves a campaign, enforcing ownership
func (s *CampaignService) GetCampaign(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByUserIDAndID(userID, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// GetCampaignStats retrieves a campaign with lead/job counters
func (s *CampaignService) GetCampaignStats(userID, campaignID string) (*models.CampaignStatsResponse, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	leadCounts, err := s.leads.CountByStatus(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	pendingJobs, err := s.jobs.CountPending(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending jobs: %w", err)
	}

	var total int64
	for _, count := range leadCounts {
		total += count
	}

	return &models.CampaignStatsResponse{
		CampaignResponse: toCampaignResponse(campaign),
		TotalLeads:       total,
		PendingLeads:     leadCounts[models.LeadPending],
		ContactedLeads:   leadCounts[models.LeadContacted],
		RepliedLeads:     leadCounts[models.LeadReplied],
		FailedLeads:      leadCounts[models.LeadFailed],
		CompletedLeads:   leadCounts[models.LeadCompleted],
		PendingJobs:      pendingJobs,
	}, nil
}

// ListCampaigns lists a user's campaigns, newest first
func (s *CampaignService) ListCampaigns(userID string, offset, limit int) ([]*models.Campaign, error) {
	campaigns, err := s.campaigns.ListByUserID(userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaign updates a campaign's authoring fields. Draft only.
func (s *CampaignService) UpdateCampaign(userID, campaignID string, req *models.UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != models.CampaignDraft {
		return nil, ErrNotDraft
	}

	if req.Name != "" {
		campaign.Name = req.Name
	}
	if req.Pitch != "" {
		campaign.Pitch = req.Pitch
	}
	if req.Tone != "" {
		if !models.ValidTone(req.Tone) {
			return nil, fmt.Errorf("unsupported tone: %s", req.Tone)
		}
		campaign.Tone = req.Tone
	}
	campaign.UpdatedAt = time.Now().UTC()

	if err := s.campaigns.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

// DeleteCampaign deletes a draft campaign and everything under it
func (s *CampaignService) DeleteCampaign(userID, campaignID string) error {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return err
	}

	if campaign.Status != models.CampaignDraft {
		return ErrNotDraft
	}

	if err := s.campaigns.DeleteByUserIDAndID(userID, campaignID); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	logrus.WithField("campaign_id", campaignID).Info("Deleted campaign")
	return nil
}

// DuplicateCampaign copies a campaign and its templates (not leads or jobs)
// into a fresh draft
func (s *CampaignService) DuplicateCampaign(userID, campaignID, newName string) (*models.Campaign, error) {
	original, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	if newName == "" {
		newName = original.Name + " (Copy)"
	}

	duplicate := &models.Campaign{
		UserID: userID,
		Name:   newName,
		Pitch:  original.Pitch,
		Tone:   original.Tone,
		Status: models.CampaignDraft,
	}
	if err := s.campaigns.Create(duplicate); err != nil {
		return nil, fmt.Errorf("failed to create duplicate campaign: %w", err)
	}

	templates, err := s.templates.ListByCampaign(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	for _, template := range templates {
		copied := &models.EmailTemplate{
			CampaignID:   duplicate.ID,
			StepNumber:   template.StepNumber,
			Subject:      template.Subject,
			Body:         template.Body,
			DelayMinutes: template.DelayMinutes,
		}
		if err := s.templates.Create(copied); err != nil {
			return nil, fmt.Errorf("failed to copy template: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"source_id":    campaignID,
		"duplicate_id": duplicate.ID,
	}).Info("Duplicated campaign")
	return duplicate, nil
}

// LaunchCampaign transitions a draft campaign to active and creates the
// step-1 job for every pending lead. This is the only place jobs are
// created outside of the step sequencer.
func (s *CampaignService) LaunchCampaign(userID, campaignID string, startTime *time.Time) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	// Only drafts launch. Paused campaigns can also transition to active,
	// but that path is ResumeCampaign; launching one again would mint a
	// second step-1 job per pending lead.
	if campaign.Status != models.CampaignDraft {
		return nil, fmt.Errorf("cannot launch campaign in %s status", campaign.Status)
	}

	templates, err := s.templates.ListByCampaign(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}

	leads, err := s.leads.ListPendingByCampaign(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	if len(leads) == 0 {
		return nil, ErrNoLeads
	}

	now := time.Now().UTC()
	scheduledStart := now
	if startTime != nil {
		scheduledStart = startTime.UTC()
	}

	jobs := make([]*models.EmailJob, 0, len(leads))
	for _, lead := range leads {
		jobs = append(jobs, &models.EmailJob{
			CampaignID:  campaignID,
			LeadID:      lead.ID,
			StepNumber:  1,
			ScheduledAt: scheduledStart,
			Status:      models.JobPending,
		})
	}
	if err := s.jobs.CreateBatch(jobs); err != nil {
		return nil, fmt.Errorf("failed to create launch jobs: %w", err)
	}

	campaign.Status = models.CampaignActive
	campaign.StartTime = &scheduledStart
	campaign.UpdatedAt = now
	if err := s.campaigns.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to activate campaign: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaignID,
		"leads":       len(leads),
		"start":       scheduledStart,
	}).Info("Launched campaign")
	return campaign, nil
}

// PauseCampaign pauses an active campaign
func (s *CampaignService) PauseCampaign(userID, campaignID string) (*models.Campaign, error) {
	return s.transition(userID, campaignID, models.CampaignPaused, "Paused campaign")
}

// ResumeCampaign resumes a paused campaign
func (s *CampaignService) ResumeCampaign(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignPaused {
		return nil, fmt.Errorf("cannot resume campaign in %s status", campaign.Status)
	}
	return s.transition(userID, campaignID, models.CampaignActive, "Resumed campaign")
}

func (s *CampaignService) transition(userID, campaignID string, to models.CampaignStatus, logMsg string) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	if !campaign.Status.CanTransition(to) {
		return nil, fmt.Errorf("cannot move campaign from %s to %s", campaign.Status, to)
	}

	campaign.Status = to
	campaign.UpdatedAt = time.Now().UTC()
	if err := s.campaigns.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign status: %w", err)
	}

	logrus.WithField("campaign_id", campaignID).Info(logMsg)
	return campaign, nil
}

// CheckCompletion promotes an active campaign to completed once no lead
// remains in a non-terminal state and no job remains pending. Returns
// whether the campaign was completed by this call.
func (s *CampaignService) CheckCompletion(campaignID string) (bool, error) {
	campaign, err := s.campaigns.GetByID(campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load campaign: %w", err)
	}

	if campaign.Status != models.CampaignActive {
		return false, nil
	}

	activeLeads, err := s.leads.CountActive(campaignID)
	if err != nil {
		return false, fmt.Errorf("failed to count active leads: %w", err)
	}
	if activeLeads > 0 {
		return false, nil
	}

	pendingJobs, err := s.jobs.CountPending(campaignID)
	if err != nil {
		return false, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	if pendingJobs > 0 {
		return false, nil
	}

	campaign.Status = models.CampaignCompleted
	campaign.UpdatedAt = time.Now().UTC()
	if err := s.campaigns.Update(campaign); err != nil {
		return false, fmt.Errorf("failed to complete campaign: %w", err)
	}

	logrus.WithField("campaign_id", campaignID).Info("Campaign completed")
	return true, nil
}

// toCampaignResponse converts a Campaign model to its response DTO
func toCampaignResponse(campaign *models.Campaign) models.CampaignResponse {
	return models.CampaignResponse{
		ID:        campaign.ID,
		UserID:    campaign.UserID,
		Name:      campaign.Name,
		Pitch:     campaign.Pitch,
		Tone:      campaign.Tone,
		Status:    campaign.Status,
		StartTime: campaign.StartTime,
		CreatedAt: campaign.CreatedAt.Format(time.RFC3339),
		UpdatedAt: campaign.UpdatedAt.Format(time.RFC3339),
	}
}

// ToCampaignResponse is the exported conversion used by handlers
func ToCampaignResponse(campaign *models.Campaign) models.CampaignResponse {
	return toCampaignResponse(campaign)
}
