package services

import (
	"errors"

	"github.com/DevPar45/eventlinkd/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrEventCompleted      = errors.New("event already completed")
	ErrAlreadyApplied      = errors.New("volunteer already applied to this event")
	ErrApplicationNotFound = errors.New("application not found")
	ErrAlreadyDecided      = errors.New("application already decided")
	ErrInvalidStatus       = errors.New("invalid application status")
)

// ApplicationService runs the volunteer apply / organiser accept-reject workflow.
type ApplicationService struct {
	db       *gorm.DB
	notifier Notifier
	log      *zerolog.Logger
}

func NewApplicationService(db *gorm.DB, notifier Notifier, log *zerolog.Logger) *ApplicationService {
	return &ApplicationService{db: db, notifier: notifier, log: log}
}

// Apply creates a pending application for the volunteer. First apply wins: the
// unique (event, volunteer) index rejects a second attempt even under
// concurrent requests. Capacity is informational only, applications past
// requiredVolunteers are accepted.
func (s *ApplicationService) Apply(eventID, volunteerID uint, volunteerName, volunteerEmail, message string) (*models.Application, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.Status == models.EventStatusCompleted {
		return nil, ErrEventCompleted
	}

	application := models.Application{
		EventID:        eventID,
		VolunteerID:    volunteerID,
		VolunteerName:  volunteerName,
		VolunteerEmail: volunteerEmail,
		Status:         models.ApplicationStatusPending,
		Message:        message,
	}
	if err := s.db.Create(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyApplied
		}
		return nil, err
	}

	// Notify the organiser (best-effort)
	var organiser models.User
	if err := s.db.Select("id, email").First(&organiser, event.OrganiserID).Error; err == nil {
		go s.notifier.OnApply(organiser.Email, volunteerName, event.Title, event.ID)
	} else {
		s.log.Warn().Err(err).Uint("organiserID", event.OrganiserID).Msg("could not load organiser for apply notification")
	}

	return &application, nil
}

// SetStatus moves a pending application to accepted or rejected. The
// transition is one-way; repeating the current status is a no-op, flipping a
// decided application is refused. Acceptance places the volunteer in the
// event's selected set exactly once by construction (selection is derived from
// the application row itself).
func (s *ApplicationService) SetStatus(applicationID, eventID uint, status string) (*models.Application, error) {
	if status != models.ApplicationStatusAccepted && status != models.ApplicationStatusRejected {
		return nil, ErrInvalidStatus
	}

	var application models.Application
	if err := s.db.Where("id = ? AND event_id = ?", applicationID, eventID).First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	if application.Status == status {
		return &application, nil
	}
	if application.Status != models.ApplicationStatusPending {
		return nil, ErrAlreadyDecided
	}

	if err := s.db.Model(&application).Update("status", status).Error; err != nil {
		return nil, err
	}
	application.Status = status

	if status == models.ApplicationStatusAccepted {
		var event models.Event
		if err := s.db.Select("id, title").First(&event, eventID).Error; err == nil {
			go s.notifier.OnApproval(application.VolunteerEmail, application.VolunteerName, event.Title, event.ID)
		}
	}

	return &application, nil
}

// List returns applications filtered by event and/or volunteer, newest first.
func (s *ApplicationService) List(eventID, volunteerID uint) ([]models.Application, error) {
	q := s.db.Model(&models.Application{})
	if eventID != 0 {
		q = q.Where("event_id = ?", eventID)
	}
	if volunteerID != 0 {
		q = q.Where("volunteer_id = ?", volunteerID)
	}
	var applications []models.Application
	if err := q.Order("created_at DESC, id DESC").Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}
