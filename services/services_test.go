package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DevPar45/eventlinkd/models"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache database per test keeps the schema alive across
	// the pool's connections while isolating tests from each other.
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Application{},
		&models.Certificate{},
		&models.Chat{},
		&models.ChatUnread{},
		&models.Message{},
		&models.AuditLog{},
	))
	return db
}

func testLogger() *zerolog.Logger {
	log := zerolog.Nop()
	return &log
}

func createUser(t *testing.T, db *gorm.DB, name, email, role string) *models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, Role: role}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createEvent(t *testing.T, db *gorm.DB, organiser *models.User, title string, required int) *models.Event {
	t.Helper()
	event := models.Event{
		OrganiserID:        organiser.ID,
		OrganiserName:      organiser.Name,
		Title:              title,
		Description:        "help out",
		Category:           "community",
		Location:           "Town Hall",
		Date:               time.Now().Add(48 * time.Hour),
		RequiredVolunteers: required,
		Status:             models.EventStatusOpen,
	}
	require.NoError(t, db.Create(&event).Error)
	return &event
}

// fakeNotifier records notification calls. Safe for use from the goroutines
// the workflows dispatch notifications on.
type fakeNotifier struct {
	mu           sync.Mutex
	applies      []string
	approvals    []string
	certificates []string
}

func (f *fakeNotifier) OnApply(organiserEmail, volunteerName, eventTitle string, eventID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies = append(f.applies, organiserEmail)
}

func (f *fakeNotifier) OnApproval(volunteerEmail, volunteerName, eventTitle string, eventID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvals = append(f.approvals, volunteerEmail)
}

func (f *fakeNotifier) OnCertificate(volunteerEmail, volunteerName, eventTitle, certificateURL, verifyURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.certificates = append(f.certificates, volunteerEmail)
}

func (f *fakeNotifier) applyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.applies)
}

func (f *fakeNotifier) approvalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.approvals)
}

func (f *fakeNotifier) certificateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.certificates)
}

// fakeUploader records uploads and returns a deterministic URL per key.
type fakeUploader struct {
	mu      sync.Mutex
	keys    []string
	failAll bool
}

func (f *fakeUploader) Upload(key string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return "", fmt.Errorf("upload unavailable")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty artifact")
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.test/" + key + ".png", nil
}

func (f *fakeUploader) uploadedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}
