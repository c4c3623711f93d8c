package models

import "gorm.io/gorm"

const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusAccepted = "accepted"
	ApplicationStatusRejected = "rejected"
)

// Application is one volunteer's application to one event. The composite unique
// index makes the first apply win at the store level, concurrent or not.
type Application struct {
	gorm.Model
	EventID        uint   `json:"eventID" gorm:"not null;uniqueIndex:idx_event_volunteer"`
	VolunteerID    uint   `json:"volunteerID" gorm:"not null;uniqueIndex:idx_event_volunteer"`
	VolunteerName  string `json:"volunteerName"`
	VolunteerEmail string `json:"volunteerEmail"`
	Status         string `json:"status" gorm:"type:varchar(16);default:pending;index"` // pending | accepted | rejected
	Message        string `json:"message"`
}
