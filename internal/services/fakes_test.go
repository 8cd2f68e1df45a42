package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/email"
	"github.com/coldreach/outreach-backend/internal/models"
)

// In-memory store fakes. They mirror the gorm repositories' contracts,
// including returning gorm.ErrRecordNotFound for missing records and
// (nil, nil) from GetByStep.

type fakeCampaignStore struct {
	mu        sync.Mutex
	campaigns map[string]*models.Campaign
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{campaigns: make(map[string]*models.Campaign)}
}

func (f *fakeCampaignStore) Create(campaign *models.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	campaign.CreatedAt = time.Now().UTC()
	campaign.UpdatedAt = campaign.CreatedAt
	copied := *campaign
	f.campaigns[campaign.ID] = &copied
	return nil
}

func (f *fakeCampaignStore) GetByID(id string) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	campaign, ok := f.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *campaign
	return &copied, nil
}

func (f *fakeCampaignStore) GetByUserIDAndID(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := f.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return campaign, nil
}

func (f *fakeCampaignStore) ListByUserID(userID string, offset, limit int) ([]*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Campaign
	for _, campaign := range f.campaigns {
		if campaign.UserID == userID {
			copied := *campaign
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, offset, limit), nil
}

func (f *fakeCampaignStore) Update(campaign *models.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.campaigns[campaign.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *campaign
	f.campaigns[campaign.ID] = &copied
	return nil
}

func (f *fakeCampaignStore) DeleteByUserIDAndID(userID, campaignID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	campaign, ok := f.campaigns[campaignID]
	if !ok || campaign.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(f.campaigns, campaignID)
	return nil
}

type fakeLeadStore struct {
	mu    sync.Mutex
	leads map[string]*models.Lead
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{leads: make(map[string]*models.Lead)}
}

func (f *fakeLeadStore) Create(lead *models.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	lead.CreatedAt = time.Now().UTC()
	lead.UpdatedAt = lead.CreatedAt
	copied := *lead
	f.leads[lead.ID] = &copied
	return nil
}

func (f *fakeLeadStore) CreateBatch(leads []*models.Lead) error {
	for _, lead := range leads {
		if err := f.Create(lead); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLeadStore) GetByID(id string) (*models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeLeadStore) Update(lead *models.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.leads[lead.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *lead
	f.leads[lead.ID] = &copied
	return nil
}

func (f *fakeLeadStore) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.leads[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeLeadStore) ListByCampaign(campaignID string, status *models.LeadStatus, offset, limit int) ([]*models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Lead
	for _, lead := range f.leads {
		if lead.CampaignID != campaignID {
			continue
		}
		if status != nil && lead.Status != *status {
			continue
		}
		copied := *lead
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return paginate(out, offset, limit), nil
}

func (f *fakeLeadStore) ListPendingByCampaign(campaignID string) ([]*models.Lead, error) {
	pending := models.LeadPending
	return f.ListByCampaign(campaignID, &pending, 0, 0)
}

func (f *fakeLeadStore) ListEmails(campaignID string) ([]string, error) {
	leads, _ := f.ListByCampaign(campaignID, nil, 0, 0)
	emails := make([]string, 0, len(leads))
	for _, lead := range leads {
		emails = append(emails, lead.Email)
	}
	return emails, nil
}

func (f *fakeLeadStore) CountActive(campaignID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, lead := range f.leads {
		if lead.CampaignID == campaignID &&
			(lead.Status == models.LeadPending || lead.Status == models.LeadContacted) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLeadStore) CountByStatus(campaignID string) (map[models.LeadStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[models.LeadStatus]int64)
	for _, lead := range f.leads {
		if lead.CampaignID == campaignID {
			counts[lead.Status]++
		}
	}
	return counts, nil
}

type fakeJobStore struct {
	mu    sync.Mutex
	jobs  map[string]*models.EmailJob
	leads *fakeLeadStore

	// claimed mirrors the row locks a claim takes out: a claimed job is
	// invisible to other claimants until its holder writes it back.
	claimed map[string]bool
}

func newFakeJobStore(leads *fakeLeadStore) *fakeJobStore {
	return &fakeJobStore{
		jobs:    make(map[string]*models.EmailJob),
		claimed: make(map[string]bool),
		leads:   leads,
	}
}

func (f *fakeJobStore) Create(job *models.EmailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	job.UpdatedAt = job.CreatedAt
	copied := *job
	copied.Lead = nil
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobStore) CreateBatch(jobs []*models.EmailJob) error {
	for _, job := range jobs {
		if err := f.Create(job); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeJobStore) Update(job *models.EmailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[job.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *job
	copied.Lead = nil
	f.jobs[job.ID] = &copied
	delete(f.claimed, job.ID)
	return nil
}

func (f *fakeJobStore) GetByID(id string) (*models.EmailJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobStore) ClaimDue(now time.Time, limit int) ([]*models.EmailJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*models.EmailJob
	for _, job := range f.jobs {
		if job.Status == models.JobPending && !job.ScheduledAt.After(now) && !f.claimed[job.ID] {
			copied := *job
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for _, job := range due {
		f.claimed[job.ID] = true
	}
	if f.leads != nil {
		for _, job := range due {
			if lead, err := f.leads.GetByID(job.LeadID); err == nil {
				job.Lead = lead
			}
		}
	}
	return due, nil
}

func (f *fakeJobStore) CountPending(campaignID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, job := range f.jobs {
		if job.CampaignID == campaignID && job.Status == models.JobPending {
			count++
		}
	}
	return count, nil
}

func (f *fakeJobStore) SkipPendingForLead(leadID, reason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, job := range f.jobs {
		if job.LeadID == leadID && job.Status == models.JobPending {
			job.Status = models.JobSkipped
			job.LastError = reason
			job.UpdatedAt = time.Now().UTC()
			count++
		}
	}
	return count, nil
}

func (f *fakeJobStore) ListByCampaign(campaignID string, status *models.JobStatus, offset, limit int) ([]*models.EmailJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EmailJob
	for _, job := range f.jobs {
		if job.CampaignID != campaignID {
			continue
		}
		if status != nil && job.Status != *status {
			continue
		}
		copied := *job
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return paginate(out, offset, limit), nil
}

func (f *fakeJobStore) ListByLead(leadID string) ([]*models.EmailJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EmailJob
	for _, job := range f.jobs {
		if job.LeadID == leadID {
			copied := *job
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out, nil
}

func (f *fakeJobStore) ListFailed(campaignID string) ([]*models.EmailJob, error) {
	failed := models.JobFailed
	return f.ListByCampaign(campaignID, &failed, 0, 0)
}

func (f *fakeJobStore) ResetForRetry(job *models.EmailJob) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.jobs[job.ID]
	if !ok || stored.Status != models.JobFailed {
		return false, nil
	}
	stored.Status = models.JobPending
	stored.Attempts = 0
	stored.LastError = ""
	stored.ScheduledAt = time.Now().UTC()
	stored.UpdatedAt = stored.ScheduledAt
	return true, nil
}

func (f *fakeJobStore) ResetAllFailed(campaignID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, job := range f.jobs {
		if job.CampaignID == campaignID && job.Status == models.JobFailed {
			job.Status = models.JobPending
			job.Attempts = 0
			job.LastError = ""
			job.ScheduledAt = time.Now().UTC()
			count++
		}
	}
	return count, nil
}

func (f *fakeJobStore) StepSummary(campaignID string) ([]models.StepSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byStep := make(map[int]*models.StepSummary)
	for _, job := range f.jobs {
		if job.CampaignID != campaignID {
			continue
		}
		summary, ok := byStep[job.StepNumber]
		if !ok {
			summary = &models.StepSummary{StepNumber: job.StepNumber}
			byStep[job.StepNumber] = summary
		}
		switch job.Status {
		case models.JobSent:
			summary.Sent++
		case models.JobPending:
			summary.Pending++
		case models.JobFailed:
			summary.Failed++
		case models.JobSkipped:
			summary.Skipped++
		}
	}
	var out []models.StepSummary
	for _, summary := range byStep {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out, nil
}

type fakeTemplateStore struct {
	mu        sync.Mutex
	templates map[string]*models.EmailTemplate

	// onGetByStep, when set, runs before each lookup. Lets tests mutate
	// state after a job passed its first validation but before the send.
	onGetByStep func()
}

func newFakeTemplateStore() *fakeTemplateStore {
	return &fakeTemplateStore{templates: make(map[string]*models.EmailTemplate)}
}

func (f *fakeTemplateStore) Create(template *models.EmailTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	template.CreatedAt = time.Now().UTC()
	template.UpdatedAt = template.CreatedAt
	copied := *template
	f.templates[template.ID] = &copied
	return nil
}

func (f *fakeTemplateStore) GetByID(id string) (*models.EmailTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	template, ok := f.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *template
	return &copied, nil
}

func (f *fakeTemplateStore) GetByStep(campaignID string, stepNumber int) (*models.EmailTemplate, error) {
	if f.onGetByStep != nil {
		f.onGetByStep()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, template := range f.templates {
		if template.CampaignID == campaignID && template.StepNumber == stepNumber {
			copied := *template
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTemplateStore) ListByCampaign(campaignID string) ([]*models.EmailTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EmailTemplate
	for _, template := range f.templates {
		if template.CampaignID == campaignID {
			copied := *template
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out, nil
}

func (f *fakeTemplateStore) Update(template *models.EmailTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.templates[template.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *template
	f.templates[template.ID] = &copied
	return nil
}

func (f *fakeTemplateStore) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.templates[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.templates, id)
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) add(user *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	copied := *user
	f.users[user.ID] = &copied
	return user
}

func (f *fakeUserStore) GetByID(id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	name    string
	payload map[string]interface{}
}

func (p *recordingPublisher) Publish(event string, payload map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{name: event, payload: payload})
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.name)
	}
	return out
}

// fakeProvider scripts send outcomes per recipient
type fakeProvider struct {
	mu sync.Mutex

	failWith  string // when set, every send fails with this error
	errOnSend error  // returned as a transport error
	panicMsg  string // non-empty → panics on send

	sent []sentEmail
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

func (p *fakeProvider) Send(to, subject, htmlBody string, meta email.Metadata, fromOverride string) (email.Result, error) {
	if p.panicMsg != "" {
		panic(p.panicMsg)
	}
	if p.errOnSend != nil {
		return email.Result{}, p.errOnSend
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != "" {
		return email.Result{Success: false, Error: p.failWith}, nil
	}
	p.sent = append(p.sent, sentEmail{To: to, Subject: subject, Body: htmlBody})
	return email.Result{Success: true, MessageID: uuid.NewString()}, nil
}

func (p *fakeProvider) SendTransactional(to, subject, textBody string) (email.Result, error) {
	return email.Result{Success: true, MessageID: uuid.NewString()}, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
