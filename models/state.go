package models

import (
	"strings"
)

// State is a GST state or union territory.
type State struct {
	ID          int    `gorm:"primary_key" json:"id"`
	Country     string `gorm:"index;size:50;not null" json:"country"`
	Code        string `gorm:"index;size:6;not null" json:"code"`
	StateNameEn string `gorm:"size:50;not null" json:"state_name_en"`
	IsActive    *bool  `gorm:"not null;default:true" json:"is_active"`
}

// SameState compares two state names the way place of supply is compared:
// surrounding spaces and letter case are ignored.
func SameState(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
