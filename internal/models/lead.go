package models

import "gorm.io/gorm"

// Lead sources.
const (
	LeadSourceBookingFlow   = "booking_flow"
	LeadSourceBudgetMention = "budget_mention"
	LeadSourceBrochure      = "brochure"
)

// Lead is a prospect signal captured from a conversation
type Lead struct {
	gorm.Model
	Reference     string `json:"reference" gorm:"uniqueIndex;size:36"`
	Phone         string `json:"phone" gorm:"index"` // WhatsApp sender
	ContactPhone  string `json:"contact_phone"`
	Name          string `json:"name"`
	PreferredDate string `json:"preferred_date"`
	PreferredTime string `json:"preferred_time"`
	UnitType      string `json:"unit_type"`
	Budget        string `json:"budget"`
	Source        string `json:"source" gorm:"index"`
	Language      string `json:"language"`
}
