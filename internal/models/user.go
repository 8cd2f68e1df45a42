package models

import (
	"time"
)

// User represents an account that owns campaigns
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Email        string `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string `json:"-" gorm:"type:varchar(255);not null"`
	FirstName    string `json:"first_name" gorm:"type:varchar(100)"`
	Company      string `json:"company" gorm:"type:varchar(255)"`

	// Optional HTML signature appended to outbound campaign emails
	EmailSignature string `json:"email_signature" gorm:"type:text"`

	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// RegisterRequest represents the request to create a new account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email" example:"founder@acme.io"`
	Password  string `json:"password" binding:"required,min=8" example:"correct-horse"`
	FirstName string `json:"first_name" example:"Jane"`
	Company   string `json:"company" example:"Acme"`
}

// LoginRequest represents the request to authenticate
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"founder@acme.io"`
	Password string `json:"password" binding:"required" example:"correct-horse"`
}

// AuthResponse represents a successful authentication
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type" example:"bearer"`
	ExpiresIn   int64        `json:"expires_in" example:"604800"`
	User        UserResponse `json:"user"`
}

// UserResponse represents the public view of a user
type UserResponse struct {
	ID             string `json:"id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Email          string `json:"email" example:"founder@acme.io"`
	FirstName      string `json:"first_name" example:"Jane"`
	Company        string `json:"company" example:"Acme"`
	EmailSignature string `json:"email_signature"`
	CreatedAt      string `json:"created_at" example:"2025-01-09T10:30:00Z"`
}

// UpdateProfileRequest represents the request to update profile fields
type UpdateProfileRequest struct {
	FirstName      string `json:"first_name" example:"Jane"`
	Company        string `json:"company" example:"Acme"`
	EmailSignature string `json:"email_signature" example:"Jane Doe<br>Acme"`
}
