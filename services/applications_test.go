package services

import (
	"testing"
	"time"

	"github.com/DevPar45/eventlinkd/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCreatesPendingApplication(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewApplicationService(db, notifier, testLogger())

	organiser := createUser(t, db, "Orla", "orla@example.test", models.RoleOrganiser)
	volunteer := createUser(t, db, "Vik", "vik@example.test", models.RoleVolunteer)
	event := createEvent(t, db, organiser, "Beach Cleanup", 5)

	application, err := svc.Apply(event.ID, volunteer.ID, volunteer.Name, volunteer.Email, "happy to help")
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusPending, application.Status)
	assert.Equal(t, "Vik", application.VolunteerName)
	assert.Equal(t, "vik@example.test", application.VolunteerEmail)

	var loaded models.Event
	require.NoError(t, db.Preload("Applications").First(&loaded, event.ID).Error)
	loaded.PopulateVolunteers()
	assert.Equal(t, []uint{volunteer.ID}, loaded.AppliedVolunteers)
	assert.Empty(t, loaded.SelectedVolunteers)
	assert.Equal(t, models.EventStatusOpen, loaded.Status)

	require.Eventually(t, func() bool { return notifier.applyCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestApplyTwiceFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db, &fakeNotifier{}, testLogger())

	organiser := createUser(t, db, "Orla", "orla@example.test", models.RoleOrganiser)
	volunteer := createUser(t, db, "Vik", "vik@example.test", models.RoleVolunteer)
	event := createEvent(t, db, organiser, "Beach Cleanup", 5)

	_, err := svc.Apply(event.ID, volunteer.ID, volunteer.Name, volunteer.Email, "")
	require.NoError(t, err)

	_, err = svc.Apply(event.ID, volunteer.ID, volunteer.Name, volunteer.Email, "")
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	var loaded models.Event
	require.NoError(t, db.Preload("Applications").First(&loaded, event.ID).Error)
	loaded.PopulateVolunteers()
	assert.Equal(t, []uint{volunteer.ID}, loaded.AppliedVolunteers, "no duplicate volunteer id after a second apply")
}

func TestApplyUnknownEvent(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db, &fakeNotifier{}, testLogger())

	_, err := svc.Apply(9999, 1, "Vik", "vik@example.test", "")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestApplyAcceptsPastCapacity(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db, &fakeNotifier{}, testLogger())

	organiser := createUser(t, db, "Orla", "orla@example.test", models.RoleOrganiser)
	event := createEvent(t, db, organiser, "Tiny Event", 1)

	for i := 0; i < 3; i++ {
		volunteer := createUser(t, db, "Vol", string(rune('a'+i))+"@example.test", models.RoleVolunteer)
		_, err := svc.Apply(event.ID, volunteer.ID, volunteer.Name, volunteer.Email, "")
		require.NoError(t, err, "capacity is informational, applications past it are accepted")
	}
}

func TestSetStatusAccept(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewApplicationService(db, notifier, testLogger())

	organiser := createUser(t, db, "Orla", "orla@example.test", models.RoleOrganiser)
	volunteer := createUser(t, db, "Vik", "vik@example.test", models.RoleVolunteer)
	event := createEvent(t, db, organiser, "Beach Cleanup", 5)

	application, err := svc.Apply(event.ID, volunteer.ID, volunteer.Name, volunteer.Email, "")
	require.NoError(t, err)

	updated, err := svc.SetStatus(application.ID, event.ID, models.ApplicationStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, updated.Status)

	var loaded models.Event
	require.NoError(t, db.Preload("Applications").First(&loaded, event.ID).Error)
	loaded.PopulateVolunteers()
	assert.Equal(t, []uint{volunteer.ID}, loaded.SelectedVolunteers)

	require.Eventually(t, func() bool { return notifier.approvalCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSetStatusAcceptTwiceIsNoOp(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db, &fakeNotifier{}, testLogger())

	organiser := createUser(t, db, "Orla", "orla@example.test", models.RoleOrganiser)
	volunteer := createUser(t, db, "Vik", "vik@example.test", models.RoleVolunteer)
	event := createEvent(t, db, organiser, "Beach Cleanup", 5)

	application, err := svc.Apply(event.ID, volunteer.ID, volunteer.Name, volunteer.Email, "")
	require.NoError(t, err)

	_, err = svc.SetStatus(application.ID, event.ID, models.ApplicationStatusAccepted)
	require.NoError(t, err)
	_, err = svc.SetStatus(application.ID, event.ID, models.ApplicationStatusAccepted)
	require.NoError(t, err)

	var loaded models.Event
	require.NoError(t, db.Preload("Applications").First(&loaded, event.ID).Error)
	loaded.PopulateVolunteers()
	assert.Equal(t, []uint{volunteer.ID}, loaded.SelectedVolunteers, "accepted volunteer appears exactly once")
}

func TestSetStatusIsTerminal(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db, &fakeNotifier{}, testLogger())

	organiser := createUser(t, db, "Orla", "orla@example.test", models.RoleOrganiser)
	volunteer := createUser(t, db, "Vik", "vik@example.test", models.RoleVolunteer)
	event := createEvent(t, db, organiser, "Beach Cleanup", 5)

	application, err := svc.Apply(event.ID, volunteer.ID, volunteer.Name, volunteer.Email, "")
	require.NoError(t, err)

	_, err = svc.SetStatus(application.ID, event.ID, models.ApplicationStatusRejected)
	require.NoError(t, err)

	_, err = svc.SetStatus(application.ID, event.ID, models.ApplicationStatusAccepted)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestSetStatusRejectsUnknownValues(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db, &fakeNotifier{}, testLogger())

	_, err := svc.SetStatus(1, 1, "pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.SetStatus(1, 1, "waitlisted")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListApplicationsFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db, &fakeNotifier{}, testLogger())

	organiser := createUser(t, db, "Orla", "orla@example.test", models.RoleOrganiser)
	volA := createUser(t, db, "Ana", "ana@example.test", models.RoleVolunteer)
	volB := createUser(t, db, "Ben", "ben@example.test", models.RoleVolunteer)
	eventOne := createEvent(t, db, organiser, "Event One", 5)
	eventTwo := createEvent(t, db, organiser, "Event Two", 5)

	_, err := svc.Apply(eventOne.ID, volA.ID, volA.Name, volA.Email, "")
	require.NoError(t, err)
	_, err = svc.Apply(eventOne.ID, volB.ID, volB.Name, volB.Email, "")
	require.NoError(t, err)
	_, err = svc.Apply(eventTwo.ID, volA.ID, volA.Name, volA.Email, "")
	require.NoError(t, err)

	byEvent, err := svc.List(eventOne.ID, 0)
	require.NoError(t, err)
	assert.Len(t, byEvent, 2)

	byVolunteer, err := svc.List(0, volA.ID)
	require.NoError(t, err)
	assert.Len(t, byVolunteer, 2)

	both, err := svc.List(eventTwo.ID, volA.ID)
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, eventTwo.ID, both[0].EventID)
}
