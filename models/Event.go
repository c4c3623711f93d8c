package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventStatusOpen      = "open"
	EventStatusClosed    = "closed"
	EventStatusCompleted = "completed"
)

type Event struct {
	gorm.Model
	OrganiserID        uint           `json:"organiserID" gorm:"not null;index"`
	OrganiserName      string         `json:"organiserName"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Category           string         `json:"category" gorm:"index"`
	Location           string         `json:"location"`
	Date               time.Time      `json:"date"`
	EndDate            *time.Time     `json:"endDate"`
	RequiredVolunteers int            `json:"requiredVolunteers"`
	Status             string         `json:"status" gorm:"type:varchar(16);default:open;index"` // open | closed | completed
	CertificateIssued  bool           `json:"certificateIssued"`
	Image              string         `json:"image"`
	Requirements       datatypes.JSON `json:"requirements"`

	Applications []Application `json:"-" gorm:"foreignKey:EventID"`

	// Derived from the applications table, populated for responses only.
	AppliedVolunteers  []uint `json:"appliedVolunteers" gorm:"-"`
	SelectedVolunteers []uint `json:"selectedVolunteers" gorm:"-"`
}

// PopulateVolunteers fills the applied/selected volunteer id sets from the
// event's loaded applications.
func (e *Event) PopulateVolunteers() {
	e.AppliedVolunteers = make([]uint, 0, len(e.Applications))
	e.SelectedVolunteers = []uint{}
	for _, app := range e.Applications {
		e.AppliedVolunteers = append(e.AppliedVolunteers, app.VolunteerID)
		if app.Status == ApplicationStatusAccepted {
			e.SelectedVolunteers = append(e.SelectedVolunteers, app.VolunteerID)
		}
	}
}
