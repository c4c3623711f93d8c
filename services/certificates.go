package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/DevPar45/eventlinkd/models"
	"github.com/DevPar45/eventlinkd/utils"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// Uploader persists a rendered artifact under a key and returns its public
// URL. Uploading the same key twice overwrites.
type Uploader interface {
	Upload(key string, data []byte) (string, error)
}

var ErrVolunteerNotSelected = errors.New("volunteer is not selected for this event")

// CertificateService renders, stores and records participation certificates,
// and resolves public verification codes back to them.
type CertificateService struct {
	db       *gorm.DB
	uploader Uploader
	notifier Notifier
	log      *zerolog.Logger
	baseURL  string
	newCode  func() string
}

func NewCertificateService(db *gorm.DB, uploader Uploader, notifier Notifier, baseURL string, log *zerolog.Logger) *CertificateService {
	return &CertificateService{
		db:       db,
		uploader: uploader,
		notifier: notifier,
		baseURL:  baseURL,
		log:      log,
		newCode:  utils.GenerateVerificationCode,
	}
}

// Issue creates the certificate for one selected volunteer of one event: mint
// a verification code, render the artifact with a scannable verification link,
// upload it under the deterministic {eventID}_{volunteerID} key and record the
// certificate row. The volunteer must hold an accepted application for the
// event. Issuing twice for the same pair returns the existing certificate.
// The volunteer email is best-effort.
func (s *CertificateService) Issue(event *models.Event, volunteer *models.User) (*models.Certificate, error) {
	var existing models.Certificate
	err := s.db.Where("event_id = ? AND volunteer_id = ?", event.ID, volunteer.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	selected, err := s.selectedVolunteers(event.ID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(selected, volunteer.ID) {
		return nil, ErrVolunteerNotSelected
	}

	key := fmt.Sprintf("certificates/%d_%d", event.ID, volunteer.ID)

	// Re-roll the code if it collides with an already issued certificate.
	var certificate *models.Certificate
	for attempt := 0; attempt < 5; attempt++ {
		code := s.newCode()
		verifyURL := fmt.Sprintf("%s/verify/%s", s.baseURL, code)

		image, renderErr := renderCertificateImage(volunteer.Name, event.Title, verifyURL)
		if renderErr != nil {
			return nil, renderErr
		}
		url, uploadErr := s.uploader.Upload(key, image)
		if uploadErr != nil {
			return nil, fmt.Errorf("upload certificate: %w", uploadErr)
		}

		record := models.Certificate{
			EventID:          event.ID,
			EventTitle:       event.Title,
			OrganiserID:      event.OrganiserID,
			VolunteerID:      volunteer.ID,
			VolunteerName:    volunteer.Name,
			IssuedAt:         time.Now(),
			URL:              url,
			VerificationCode: code,
		}
		createErr := s.db.Create(&record).Error
		if createErr == nil {
			certificate = &record
			break
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, createErr
		}
		s.log.Warn().Str("code", code).Msg("verification code collision, re-rolling")
	}
	if certificate == nil {
		return nil, errors.New("could not mint a unique verification code")
	}

	verifyURL := fmt.Sprintf("%s/verify/%s", s.baseURL, certificate.VerificationCode)
	go s.notifier.OnCertificate(volunteer.Email, volunteer.Name, event.Title, certificate.URL, verifyURL)

	return certificate, nil
}

// selectedVolunteers returns the ids of volunteers with an accepted
// application for the event.
func (s *CertificateService) selectedVolunteers(eventID uint) ([]uint, error) {
	var accepted []models.Application
	if err := s.db.Where("event_id = ? AND status = ?", eventID, models.ApplicationStatusAccepted).Find(&accepted).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(accepted))
	for _, application := range accepted {
		ids = append(ids, application.VolunteerID)
	}
	return ids, nil
}

// IssueForEvent issues certificates for every selected volunteer of the event.
// Per-volunteer failures (missing profile, render or upload errors) are logged
// and skipped; the event is marked completed regardless and the count of
// successful issuances is returned. Only a missing event is an error.
func (s *CertificateService) IssueForEvent(eventID uint) (int, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrEventNotFound
		}
		return 0, err
	}

	var accepted []models.Application
	if err := s.db.Where("event_id = ? AND status = ?", eventID, models.ApplicationStatusAccepted).Find(&accepted).Error; err != nil {
		return 0, err
	}

	issued := 0
	for _, application := range accepted {
		var volunteer models.User
		if err := s.db.First(&volunteer, application.VolunteerID).Error; err != nil {
			s.log.Warn().Err(err).Uint("volunteerID", application.VolunteerID).Msg("skipping certificate, volunteer profile missing")
			continue
		}
		if _, err := s.Issue(&event, &volunteer); err != nil {
			s.log.Warn().Err(err).Uint("volunteerID", volunteer.ID).Uint("eventID", event.ID).Msg("skipping certificate, issuance failed")
			continue
		}
		issued++
	}

	// Completion is unconditional, partial failures included.
	if err := s.db.Model(&event).Updates(map[string]interface{}{
		"status":             models.EventStatusCompleted,
		"certificate_issued": true,
	}).Error; err != nil {
		return issued, err
	}

	return issued, nil
}

// Verify resolves a public verification code. Unknown codes return (nil, nil),
// not an error: not-found is a valid lookup result.
func (s *CertificateService) Verify(code string) (*models.Certificate, error) {
	var certificate models.Certificate
	err := s.db.Where("verification_code = ?", code).First(&certificate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &certificate, nil
}

// ForVolunteer lists a volunteer's certificates, most recent first.
func (s *CertificateService) ForVolunteer(volunteerID uint) ([]models.Certificate, error) {
	var certificates []models.Certificate
	err := s.db.Where("volunteer_id = ?", volunteerID).Order("issued_at DESC").Find(&certificates).Error
	if err != nil {
		return nil, err
	}
	return certificates, nil
}
