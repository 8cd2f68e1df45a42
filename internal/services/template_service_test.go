package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/outreach-backend/internal/models"
)

func intPtr(v int) *int { return &v }

type templateTestEnv struct {
	templates *fakeTemplateStore
	svc       *TemplateService
	userID    string
	campaign  *models.Campaign
}

func newTemplateTestEnv(t *testing.T, status models.CampaignStatus) *templateTestEnv {
	t.Helper()
	campaigns := newFakeCampaignStore()
	leads := newFakeLeadStore()
	jobs := newFakeJobStore(leads)
	templates := newFakeTemplateStore()
	campaignSvc := NewCampaignService(campaigns, leads, jobs, templates)

	env := &templateTestEnv{
		templates: templates,
		svc:       NewTemplateService(templates, campaignSvc, 3),
		userID:    "user-1",
	}
	env.campaign = &models.Campaign{
		UserID: env.userID,
		Name:   "Q3 outreach",
		Pitch:  "pitch",
		Tone:   models.ToneProfessional,
		Status: status,
	}
	require.NoError(t, campaigns.Create(env.campaign))
	return env
}

func TestCreateTemplate(t *testing.T) {
	env := newTemplateTestEnv(t, models.CampaignDraft)

	template, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
		StepNumber: 1,
		Subject:    "Hello {{first_name}}",
		Body:       "Hi",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, template.DelayMinutes)

	t.Run("one template per step", func(t *testing.T) {
		_, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
			StepNumber: 1,
			Subject:    "Another",
			Body:       "Hi",
		})
		assert.ErrorContains(t, err, "already has a template for step 1")
	})

	t.Run("step bounds", func(t *testing.T) {
		_, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
			StepNumber: 4,
			Subject:    "Too far",
			Body:       "Hi",
		})
		assert.ErrorContains(t, err, "between 1 and 3")
	})
}

func TestCreateTemplateDelayResolution(t *testing.T) {
	env := newTemplateTestEnv(t, models.CampaignDraft)

	t.Run("days convert to minutes", func(t *testing.T) {
		template, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
			StepNumber: 2,
			Subject:    "s",
			Body:       "b",
			DelayDays:  intPtr(3),
		})
		require.NoError(t, err)
		assert.Equal(t, 3*24*60, template.DelayMinutes)
	})

	t.Run("minutes win over days", func(t *testing.T) {
		template, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
			StepNumber:   3,
			Subject:      "s",
			Body:         "b",
			DelayMinutes: intPtr(90),
			DelayDays:    intPtr(3),
		})
		require.NoError(t, err)
		assert.Equal(t, 90, template.DelayMinutes)
	})

	t.Run("step 1 must have no delay", func(t *testing.T) {
		_, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
			StepNumber:   1,
			Subject:      "s",
			Body:         "b",
			DelayMinutes: intPtr(30),
		})
		assert.ErrorContains(t, err, "step 1 cannot have a delay")
	})

	t.Run("negative delay rejected", func(t *testing.T) {
		env := newTemplateTestEnv(t, models.CampaignDraft)
		_, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
			StepNumber:   2,
			Subject:      "s",
			Body:         "b",
			DelayMinutes: intPtr(-5),
		})
		assert.ErrorContains(t, err, "delay cannot be negative")
	})
}

func TestTemplateDraftOnly(t *testing.T) {
	env := newTemplateTestEnv(t, models.CampaignActive)

	_, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
		StepNumber: 1,
		Subject:    "s",
		Body:       "b",
	})
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestUpdateTemplate(t *testing.T) {
	env := newTemplateTestEnv(t, models.CampaignDraft)

	template, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
		StepNumber: 2,
		Subject:    "s",
		Body:       "b",
		DelayDays:  intPtr(2),
	})
	require.NoError(t, err)

	updated, err := env.svc.UpdateTemplate(env.userID, env.campaign.ID, template.ID, &models.UpdateTemplateRequest{
		Subject:   "Updated subject",
		DelayDays: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated subject", updated.Subject)
	assert.Equal(t, "b", updated.Body)
	assert.Equal(t, 5*24*60, updated.DelayMinutes)

	_, err = env.svc.UpdateTemplate(env.userID, env.campaign.ID, "missing-id", &models.UpdateTemplateRequest{})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestDeleteTemplate(t *testing.T) {
	env := newTemplateTestEnv(t, models.CampaignDraft)

	template, err := env.svc.CreateTemplate(env.userID, env.campaign.ID, &models.CreateTemplateRequest{
		StepNumber: 1,
		Subject:    "s",
		Body:       "b",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteTemplate(env.userID, env.campaign.ID, template.ID))
	err = env.svc.DeleteTemplate(env.userID, env.campaign.ID, template.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
