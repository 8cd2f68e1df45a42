package models

// CampaignStatus represents the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"     // Campaign created, not yet launched
	CampaignActive    CampaignStatus = "active"    // Campaign is running, emails being sent
	CampaignPaused    CampaignStatus = "paused"    // Campaign temporarily stopped
	CampaignCompleted CampaignStatus = "completed" // All leads processed, no pending jobs
)

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:     {CampaignActive},
	CampaignActive:    {CampaignPaused, CampaignCompleted},
	CampaignPaused:    {CampaignActive, CampaignCompleted},
	CampaignCompleted: {}, // Terminal state
}

// CanTransition reports whether a campaign may move from its current status to the target
func (s CampaignStatus) CanTransition(to CampaignStatus) bool {
	for _, allowed := range campaignTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// LeadStatus represents the processing state of a lead
type LeadStatus string

const (
	LeadPending   LeadStatus = "pending"   // Lead imported, not yet contacted
	LeadContacted LeadStatus = "contacted" // At least one email sent
	LeadReplied   LeadStatus = "replied"   // Lead replied (terminal - stops follow-ups)
	LeadFailed    LeadStatus = "failed"    // All send attempts failed (terminal)
	LeadCompleted LeadStatus = "completed" // Full sequence delivered (terminal)
)

// IsTerminal reports whether the lead has reached a final state
func (s LeadStatus) IsTerminal() bool {
	return s == LeadReplied || s == LeadFailed || s == LeadCompleted
}

// JobStatus represents the execution state of an email job
type JobStatus string

const (
	JobPending JobStatus = "pending" // Job scheduled, waiting to execute
	JobSent    JobStatus = "sent"    // Email successfully sent
	JobFailed  JobStatus = "failed"  // All retry attempts exhausted or configuration error
	JobSkipped JobStatus = "skipped" // Job skipped (lead replied, lead terminal, etc.)
)

// IsTerminal reports whether the job record can never execute again
func (s JobStatus) IsTerminal() bool {
	return s == JobSent || s == JobFailed || s == JobSkipped
}

// EmailTone is the authoring tone attached to a campaign pitch
type EmailTone string

const (
	ToneProfessional EmailTone = "professional"
	ToneCasual       EmailTone = "casual"
	ToneUrgent       EmailTone = "urgent"
	ToneFriendly     EmailTone = "friendly"
	ToneDirect       EmailTone = "direct"
)

// ValidTone reports whether the given tone is one of the supported values
func ValidTone(tone EmailTone) bool {
	switch tone {
	case ToneProfessional, ToneCasual, ToneUrgent, ToneFriendly, ToneDirect:
		return true
	}
	return false
}
