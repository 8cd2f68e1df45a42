package models

import (
	"time"
)

// EmailJob represents one scheduled attempt to deliver one step's email to one lead
type EmailJob struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CampaignID string `json:"campaign_id" gorm:"not null;index:idx_email_jobs_campaign_status;type:uuid"`
	LeadID     string `json:"lead_id" gorm:"not null;index:idx_email_jobs_lead_status;type:uuid"`

	StepNumber  int       `json:"step_number" gorm:"not null"`
	ScheduledAt time.Time `json:"scheduled_at" gorm:"not null;index:idx_email_jobs_status_scheduled,priority:2"`

	Status    JobStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_email_jobs_status_scheduled,priority:1;index:idx_email_jobs_campaign_status;index:idx_email_jobs_lead_status"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	LastError string    `json:"last_error" gorm:"type:varchar(1000)"`

	SentAt    *time.Time `json:"sent_at"`
	MessageID string     `json:"message_id" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Lead *Lead `json:"lead,omitempty" gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the EmailJob model
func (EmailJob) TableName() string {
	return "email_jobs"
}

// EmailJobResponse represents the response for job operations
type EmailJobResponse struct {
	ID          string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440003"`
	CampaignID  string     `json:"campaign_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	LeadID      string     `json:"lead_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	StepNumber  int        `json:"step_number" example:"1"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      JobStatus  `json:"status" example:"sent"`
	Attempts    int        `json:"attempts" example:"0"`
	LastError   string     `json:"last_error"`
	SentAt      *time.Time `json:"sent_at"`
	MessageID   string     `json:"message_id"`
	CreatedAt   string     `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt   string     `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}

// StepSummary aggregates job outcomes for one step of a campaign
type StepSummary struct {
	StepNumber      int        `json:"step_number" example:"1"`
	Sent            int64      `json:"sent" example:"90"`
	Pending         int64      `json:"pending" example:"5"`
	Failed          int64      `json:"failed" example:"2"`
	Skipped         int64      `json:"skipped" example:"3"`
	NextScheduledAt *time.Time `json:"next_scheduled_at"`
}
