package models

import (
	"time"
)

// Campaign represents an outreach campaign that belongs to a user
type Campaign struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID string `json:"user_id" gorm:"not null;index;type:uuid"`
	Name   string `json:"name" gorm:"type:varchar(255);not null"`

	// Immutable authoring content used when templates were generated
	Pitch string    `json:"pitch" gorm:"type:text;not null"`
	Tone  EmailTone `json:"tone" gorm:"type:varchar(20);not null;default:'professional'"`

	Status    CampaignStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'draft'"`
	StartTime *time.Time     `json:"start_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User      User            `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Leads     []Lead          `json:"leads,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
	Templates []EmailTemplate `json:"templates,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	Name  string    `json:"name" binding:"required" example:"Q3 SaaS founders"`
	Pitch string    `json:"pitch" binding:"required" example:"We help SaaS teams cut onboarding time in half"`
	Tone  EmailTone `json:"tone" example:"professional"`
}

// UpdateCampaignRequest represents the request to update a draft campaign
type UpdateCampaignRequest struct {
	Name  string    `json:"name" example:"Q3 SaaS founders (v2)"`
	Pitch string    `json:"pitch" example:"Updated value proposition"`
	Tone  EmailTone `json:"tone" example:"friendly"`
}

// LaunchCampaignRequest represents the request to launch a campaign
type LaunchCampaignRequest struct {
	StartTime *time.Time `json:"start_time" example:"2025-08-14T00:00:00Z"`
}

// DuplicateCampaignRequest represents the request to duplicate a campaign
type DuplicateCampaignRequest struct {
	Name string `json:"name" example:"Q3 SaaS founders (Copy)"`
}

// CampaignResponse represents the response for campaign operations
type CampaignResponse struct {
	ID        string         `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID    string         `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name      string         `json:"name" example:"Q3 SaaS founders"`
	Pitch     string         `json:"pitch" example:"We help SaaS teams cut onboarding time in half"`
	Tone      EmailTone      `json:"tone" example:"professional"`
	Status    CampaignStatus `json:"status" example:"active"`
	StartTime *time.Time     `json:"start_time"`
	CreatedAt string         `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt string         `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}

// CampaignStatsResponse represents a campaign with computed lead/job statistics
type CampaignStatsResponse struct {
	CampaignResponse
	TotalLeads     int64 `json:"total_leads" example:"120"`
	PendingLeads   int64 `json:"pending_leads" example:"40"`
	ContactedLeads int64 `json:"contacted_leads" example:"60"`
	RepliedLeads   int64 `json:"replied_leads" example:"10"`
	FailedLeads    int64 `json:"failed_leads" example:"2"`
	CompletedLeads int64 `json:"completed_leads" example:"8"`
	PendingJobs    int64 `json:"pending_jobs" example:"55"`
}
