package models

import (
	"time"
)

// Lead represents a contact targeted by a campaign
type Lead struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CampaignID string `json:"campaign_id" gorm:"not null;index;type:uuid"`

	Email     string `json:"email" gorm:"type:varchar(255);not null;index"`
	FirstName string `json:"first_name" gorm:"type:varchar(100)"`
	Company   string `json:"company" gorm:"type:varchar(255)"`

	Status LeadStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'pending'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Campaign Campaign   `json:"campaign,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
	Jobs     []EmailJob `json:"jobs,omitempty" gorm:"foreignKey:LeadID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Lead model
func (Lead) TableName() string {
	return "leads"
}

// CreateLeadRequest represents the request to add a single lead to a campaign
type CreateLeadRequest struct {
	Email     string `json:"email" binding:"required" example:"jane@acme.io"`
	FirstName string `json:"first_name" example:"Jane"`
	Company   string `json:"company" example:"Acme"`
}

// LeadResponse represents the response for lead operations
type LeadResponse struct {
	ID         string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440002"`
	CampaignID string     `json:"campaign_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email      string     `json:"email" example:"jane@acme.io"`
	FirstName  string     `json:"first_name" example:"Jane"`
	Company    string     `json:"company" example:"Acme"`
	Status     LeadStatus `json:"status" example:"contacted"`
	CreatedAt  string     `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt  string     `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}

// LeadImportResult summarizes a CSV or spreadsheet import
type LeadImportResult struct {
	TotalRows int      `json:"total_rows" example:"100"`
	Imported  int      `json:"imported" example:"95"`
	Skipped   int      `json:"skipped" example:"5"`
	Errors    []string `json:"errors"`
}
