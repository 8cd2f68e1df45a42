package models

import (
	"time"
)

// EmailTemplate holds the per-step subject/body/delay for a campaign sequence
type EmailTemplate struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CampaignID string `json:"campaign_id" gorm:"not null;index;uniqueIndex:idx_templates_campaign_step;type:uuid"`

	StepNumber int    `json:"step_number" gorm:"not null;uniqueIndex:idx_templates_campaign_step"`
	Subject    string `json:"subject" gorm:"type:varchar(255);not null"`
	Body       string `json:"body" gorm:"type:text;not null"`

	// Delay before this step is sent, measured from the previous step's send
	DelayMinutes int `json:"delay_minutes" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the EmailTemplate model
func (EmailTemplate) TableName() string {
	return "email_templates"
}

// CreateTemplateRequest represents the request to create a step template
type CreateTemplateRequest struct {
	StepNumber   int    `json:"step_number" binding:"required,min=1" example:"1"`
	Subject      string `json:"subject" binding:"required" example:"Quick question about {{company}}"`
	Body         string `json:"body" binding:"required" example:"Hi {{first_name}}, ..."`
	DelayMinutes *int   `json:"delay_minutes" example:"0"`
	DelayDays    *int   `json:"delay_days" example:"3"`
}

// UpdateTemplateRequest represents the request to update a step template
type UpdateTemplateRequest struct {
	Subject      string `json:"subject" example:"Following up on {{company}}"`
	Body         string `json:"body" example:"Hi {{first_name}}, just checking in..."`
	DelayMinutes *int   `json:"delay_minutes" example:"4320"`
	DelayDays    *int   `json:"delay_days" example:"3"`
}

// TemplateResponse represents the response for template operations
type TemplateResponse struct {
	ID           string `json:"id" example:"550e8400-e29b-41d4-a716-446655440004"`
	CampaignID   string `json:"campaign_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	StepNumber   int    `json:"step_number" example:"1"`
	Subject      string `json:"subject" example:"Quick question about {{company}}"`
	Body         string `json:"body" example:"Hi {{first_name}}, ..."`
	DelayMinutes int    `json:"delay_minutes" example:"0"`
	CreatedAt    string `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt    string `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}
