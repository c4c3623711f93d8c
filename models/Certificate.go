package models

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is immutable once created. Name and title snapshots are captured
// at issuance so later profile or event edits don't rewrite issued certificates.
type Certificate struct {
	gorm.Model
	EventID          uint      `json:"eventID" gorm:"not null;index"`
	EventTitle       string    `json:"eventTitle"`
	OrganiserID      uint      `json:"organiserID" gorm:"index"`
	VolunteerID      uint      `json:"volunteerID" gorm:"not null;index"`
	VolunteerName    string    `json:"volunteerName"`
	IssuedAt         time.Time `json:"issuedAt"`
	URL              string    `json:"url" gorm:"size:512"`
	VerificationCode string    `json:"verificationCode" gorm:"size:16;uniqueIndex"`
}
