package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/outreach-backend/internal/config"
	"github.com/coldreach/outreach-backend/internal/models"
)

type jobTestEnv struct {
	campaigns *fakeCampaignStore
	leads     *fakeLeadStore
	jobs      *fakeJobStore
	templates *fakeTemplateStore
	users     *fakeUserStore
	provider  *fakeProvider
	events    *recordingPublisher
	svc       *JobService

	campaign *models.Campaign
	lead     *models.Lead
	user     *models.User
}

func testSettings() *config.Settings {
	return &config.Settings{
		PollInterval:     5 * time.Second,
		BatchSize:        100,
		MaxRetryAttempts: 3,
		MaxCampaignSteps: 3,
	}
}

// newJobTestEnv builds an active campaign with one pending lead, a two-step
// template sequence and a due step-1 job.
func newJobTestEnv(t *testing.T) *jobTestEnv {
	t.Helper()

	env := &jobTestEnv{
		campaigns: newFakeCampaignStore(),
		leads:     newFakeLeadStore(),
		templates: newFakeTemplateStore(),
		users:     newFakeUserStore(),
		provider:  &fakeProvider{},
		events:    &recordingPublisher{},
	}
	env.jobs = newFakeJobStore(env.leads)

	env.user = env.users.add(&models.User{
		Email:     "owner@coldreach.io",
		FirstName: "Sam",
		IsActive:  true,
	})

	env.campaign = &models.Campaign{
		UserID: env.user.ID,
		Name:   "Q3 outreach",
		Pitch:  "We save you time",
		Tone:   models.ToneProfessional,
		Status: models.CampaignActive,
	}
	require.NoError(t, env.campaigns.Create(env.campaign))

	env.lead = &models.Lead{
		CampaignID: env.campaign.ID,
		Email:      "jane@acme.io",
		FirstName:  "Jane",
		Company:    "Acme",
		Status:     models.LeadPending,
	}
	require.NoError(t, env.leads.Create(env.lead))

	require.NoError(t, env.templates.Create(&models.EmailTemplate{
		CampaignID: env.campaign.ID,
		StepNumber: 1,
		Subject:    "Quick question about {{company}}",
		Body:       "Hi {{first_name}}, saw what {{company}} is doing.",
	}))
	require.NoError(t, env.templates.Create(&models.EmailTemplate{
		CampaignID:   env.campaign.ID,
		StepNumber:   2,
		Subject:      "Following up",
		Body:         "Hi {{first_name}}, just checking in.",
		DelayMinutes: 3 * 24 * 60,
	}))

	env.svc = NewJobService(
		env.jobs, env.leads, env.campaigns, env.templates, env.users,
		env.provider,
		NewRetryPolicy(3),
		env.events,
		testSettings(),
	)
	return env
}

func (env *jobTestEnv) dueJob(t *testing.T, step int) *models.EmailJob {
	t.Helper()
	job := &models.EmailJob{
		CampaignID:  env.campaign.ID,
		LeadID:      env.lead.ID,
		StepNumber:  step,
		ScheduledAt: time.Now().UTC().Add(-time.Minute),
		Status:      models.JobPending,
	}
	require.NoError(t, env.jobs.Create(job))
	lead, err := env.leads.GetByID(env.lead.ID)
	require.NoError(t, err)
	job.Lead = lead
	return job
}

func TestExecuteJobSendsAndSchedulesNextStep(t *testing.T) {
	env := newJobTestEnv(t)
	job := env.dueJob(t, 1)

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.True(t, sent)

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobSent, stored.Status)
	assert.NotNil(t, stored.SentAt)
	assert.NotEmpty(t, stored.MessageID)
	assert.Empty(t, stored.LastError)

	lead, err := env.leads.GetByID(env.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadContacted, lead.Status)

	// Step 2 gets queued with the authored delay
	jobs, err := env.jobs.ListByLead(env.lead.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	next := jobs[1]
	assert.Equal(t, 2, next.StepNumber)
	assert.Equal(t, models.JobPending, next.Status)
	wantAt := time.Now().UTC().Add(3 * 24 * time.Hour)
	assert.WithinDuration(t, wantAt, next.ScheduledAt, time.Minute)

	assert.Contains(t, env.events.names(), "email.sent")
}

func TestExecuteJobRendersPlaceholders(t *testing.T) {
	env := newJobTestEnv(t)
	job := env.dueJob(t, 1)

	_, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)

	require.Len(t, env.provider.sent, 1)
	msg := env.provider.sent[0]
	assert.Equal(t, "jane@acme.io", msg.To)
	assert.Equal(t, "Quick question about Acme", msg.Subject)
	assert.Contains(t, msg.Body, "Hi Jane, saw what Acme is doing.")
}

func TestExecuteJobPlaceholderFallbacks(t *testing.T) {
	env := newJobTestEnv(t)
	env.lead.FirstName = ""
	env.lead.Company = ""
	require.NoError(t, env.leads.Update(env.lead))
	job := env.dueJob(t, 1)

	_, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)

	require.Len(t, env.provider.sent, 1)
	msg := env.provider.sent[0]
	assert.Equal(t, "Quick question about your company", msg.Subject)
	assert.Contains(t, msg.Body, "Hi there, saw what your company is doing.")
}

func TestExecuteJobAppendsSignature(t *testing.T) {
	env := newJobTestEnv(t)
	env.user.EmailSignature = "Sam<br>Coldreach"
	env.users.add(env.user)
	job := env.dueJob(t, 1)

	_, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)

	require.Len(t, env.provider.sent, 1)
	assert.Contains(t, env.provider.sent[0].Body, "<br><br>Sam<br>Coldreach")
}

func TestExecuteJobFinalStepCompletesLead(t *testing.T) {
	env := newJobTestEnv(t)
	job := env.dueJob(t, 2) // step 3 has no template

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.True(t, sent)

	lead, err := env.leads.GetByID(env.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadCompleted, lead.Status)

	jobs, err := env.jobs.ListByLead(env.lead.ID)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestExecuteJobSkipsTerminalLead(t *testing.T) {
	env := newJobTestEnv(t)
	env.lead.Status = models.LeadReplied
	require.NoError(t, env.leads.Update(env.lead))
	job := env.dueJob(t, 2)

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.False(t, sent)

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobSkipped, stored.Status)
	assert.Equal(t, "lead is in terminal state: replied", stored.LastError)
	assert.Empty(t, env.provider.sent)
}

func TestExecuteJobDefersWhenCampaignPaused(t *testing.T) {
	env := newJobTestEnv(t)
	env.campaign.Status = models.CampaignPaused
	require.NoError(t, env.campaigns.Update(env.campaign))
	job := env.dueJob(t, 1)

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.False(t, sent)

	// Still pending, pushed forward, no attempt spent
	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, stored.Status)
	assert.Equal(t, 0, stored.Attempts)
	assert.Equal(t, "campaign is not active: paused", stored.LastError)
	assert.True(t, stored.ScheduledAt.After(time.Now().UTC()))
	assert.Empty(t, env.provider.sent)
}

func TestExecuteJobSkipsWhenLeadGone(t *testing.T) {
	env := newJobTestEnv(t)
	job := env.dueJob(t, 1)
	job.Lead = nil
	require.NoError(t, env.leads.Delete(env.lead.ID))

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.False(t, sent)

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobSkipped, stored.Status)
	assert.Equal(t, "lead not found", stored.LastError)
}

func TestExecuteJobMissingTemplateFailsWithoutRetry(t *testing.T) {
	env := newJobTestEnv(t)
	job := env.dueJob(t, 3) // no template authored for step 3

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.False(t, sent)

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, stored.Status)
	assert.Equal(t, "template not found for step 3", stored.LastError)
	assert.Equal(t, 0, stored.Attempts)
}

func TestExecuteJobRetriesWithBackoff(t *testing.T) {
	env := newJobTestEnv(t)
	env.provider.failWith = "rate limited"

	job := env.dueJob(t, 1)
	start := time.Now().UTC()

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.False(t, sent)

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, "rate limited", stored.LastError)
	assert.WithinDuration(t, start.Add(time.Minute), stored.ScheduledAt, 5*time.Second)

	// Second failure backs off further
	stored.Lead = job.Lead
	_, err = env.svc.ExecuteJob(stored)
	require.NoError(t, err)
	stored, err = env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Attempts)
	assert.WithinDuration(t, start.Add(5*time.Minute), stored.ScheduledAt, 5*time.Second)
}

func TestExecuteJobExhaustedRetriesFailLead(t *testing.T) {
	env := newJobTestEnv(t)
	env.provider.failWith = "mailbox rejected"
	job := env.dueJob(t, 1)

	for i := 0; i < 3; i++ {
		stored, err := env.jobs.GetByID(job.ID)
		require.NoError(t, err)
		stored.Lead, err = env.leads.GetByID(env.lead.ID)
		require.NoError(t, err)
		_, err = env.svc.ExecuteJob(stored)
		require.NoError(t, err)
	}

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)

	lead, err := env.leads.GetByID(env.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadFailed, lead.Status)

	names := env.events.names()
	assert.Contains(t, names, "email.failed")
}

func TestExecuteJobProviderTransportError(t *testing.T) {
	env := newJobTestEnv(t)
	env.provider.errOnSend = errors.New("connection refused")
	job := env.dueJob(t, 1)

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.False(t, sent)

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, "provider error: connection refused", stored.LastError)
}

func TestExecuteJobProviderPanicIsContained(t *testing.T) {
	env := newJobTestEnv(t)
	env.provider.panicMsg = "nil pointer in vendor SDK"
	job := env.dueJob(t, 1)

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.False(t, sent)

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
	assert.Contains(t, stored.LastError, "provider error: panic: nil pointer in vendor SDK")
}

func TestClaimDueJobsHonorsScheduleAndLimit(t *testing.T) {
	env := newJobTestEnv(t)

	due := env.dueJob(t, 1)
	future := &models.EmailJob{
		CampaignID:  env.campaign.ID,
		LeadID:      env.lead.ID,
		StepNumber:  2,
		ScheduledAt: time.Now().UTC().Add(time.Hour),
		Status:      models.JobPending,
	}
	require.NoError(t, env.jobs.Create(future))

	claimed, err := env.svc.ClaimDueJobs(10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, due.ID, claimed[0].ID)
	require.NotNil(t, claimed[0].Lead)
	assert.Equal(t, env.lead.ID, claimed[0].Lead.ID)
}

func TestExecuteJobSkipsWhenCampaignPausedBeforeSend(t *testing.T) {
	env := newJobTestEnv(t)
	job := env.dueJob(t, 1)

	// Pause the campaign in the window between the claim-time validation
	// and the pre-send re-validation; the send must not happen.
	env.templates.onGetByStep = func() {
		stored, err := env.campaigns.GetByID(env.campaign.ID)
		require.NoError(t, err)
		stored.Status = models.CampaignPaused
		require.NoError(t, env.campaigns.Update(stored))
	}

	sent, err := env.svc.ExecuteJob(job)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, env.provider.sent)

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobSkipped, stored.Status)
	assert.Equal(t, "skipped at final validation: campaign is not active: paused", stored.LastError)
}

func TestClaimDueJobsPartitionsBetweenClaimants(t *testing.T) {
	env := newJobTestEnv(t)

	for i := 0; i < 4; i++ {
		require.NoError(t, env.jobs.Create(&models.EmailJob{
			CampaignID:  env.campaign.ID,
			LeadID:      env.lead.ID,
			StepNumber:  1,
			ScheduledAt: time.Now().UTC().Add(-time.Duration(i+1) * time.Minute),
			Status:      models.JobPending,
		}))
	}

	first, err := env.svc.ClaimDueJobs(2)
	require.NoError(t, err)
	second, err := env.svc.ClaimDueJobs(2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Len(t, second, 2)

	seen := make(map[string]bool)
	for _, job := range append(first, second...) {
		assert.False(t, seen[job.ID], "job %s claimed twice", job.ID)
		seen[job.ID] = true
	}
	assert.Len(t, seen, 4)

	third, err := env.svc.ClaimDueJobs(2)
	require.NoError(t, err)
	assert.Empty(t, third, "every due job is already held by a claimant")
}

func TestRetryFailedJobResetsOnlyFailed(t *testing.T) {
	env := newJobTestEnv(t)
	job := env.dueJob(t, 1)

	reset, err := env.svc.RetryFailedJob(job.ID)
	require.NoError(t, err)
	assert.False(t, reset, "pending jobs are not retryable")

	stored, err := env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	stored.Status = models.JobFailed
	stored.Attempts = 3
	require.NoError(t, env.jobs.Update(stored))

	reset, err = env.svc.RetryFailedJob(job.ID)
	require.NoError(t, err)
	assert.True(t, reset)

	stored, err = env.jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, stored.Status)
	assert.Equal(t, 0, stored.Attempts)
}
