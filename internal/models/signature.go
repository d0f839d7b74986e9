package models

import "time"

// Signature represents the signatures table
// A technician proves identity with a short PIN instead of typing a name
type Signature struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	PinHash        string    `gorm:"size:255;not null" json:"-"` // Hidden from JSON for security
	SignatureImage string    `gorm:"type:text" json:"signature_image,omitempty"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for Signature model
func (Signature) TableName() string {
	return "signatures"
}

// PINVerifyResponse is returned by PIN verification
type PINVerifyResponse struct {
	IsValid        bool   `json:"is_valid"`
	Name           string `json:"name"`
	SignatureImage string `json:"signature_image,omitempty"`
}
