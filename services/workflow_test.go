package services

import (
	"testing"
	"time"

	"github.com/DevPar45/eventlinkd/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks the whole volunteer journey across the services: publish an event,
// apply, chat, accept, complete, verify the certificate.
func TestVolunteerJourney(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	uploader := &fakeUploader{}
	apps := NewApplicationService(db, notifier, testLogger())
	messaging := NewMessagingService(db, testLogger())
	certs := NewCertificateService(db, uploader, notifier, "https://eventlinkd.example.test", testLogger())

	organiser := createUser(t, db, "Olive", "olive@example.test", models.RoleOrganiser)
	alice := createUser(t, db, "Alice", "alice@example.test", models.RoleVolunteer)
	bob := createUser(t, db, "Bob", "bob@example.test", models.RoleVolunteer)
	event := createEvent(t, db, organiser, "Park Restoration", 2)

	// Both volunteers apply; each application starts out pending.
	aliceApp, err := apps.Apply(event.ID, alice.ID, alice.Name, alice.Email, "I have gardening experience")
	require.NoError(t, err)
	bobApp, err := apps.Apply(event.ID, bob.ID, bob.Name, bob.Email, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, aliceApp.Status)
	assert.Equal(t, models.ApplicationStatusPending, bobApp.Status)

	require.Eventually(t, func() bool {
		return notifier.applyCount() == 2
	}, time.Second, 10*time.Millisecond)

	// The organiser reaches out to Alice before deciding.
	_, err = messaging.SendMessage(organiser.ID, alice.ID, organiser.Name, alice.Name, "Can you start at 9am?")
	require.NoError(t, err)
	chat, err := messaging.FindOrCreateChat(alice.ID, organiser.ID, alice.Name, organiser.Name)
	require.NoError(t, err)
	assert.Equal(t, 1, unreadFor(t, chat, alice.ID))

	require.NoError(t, messaging.MarkRead(chat.ID, alice.ID))
	_, err = messaging.SendMessage(alice.ID, organiser.ID, alice.Name, organiser.Name, "Yes, see you there")
	require.NoError(t, err)

	// Alice is accepted; Bob stays pending and independent.
	_, err = apps.SetStatus(aliceApp.ID, event.ID, models.ApplicationStatusAccepted)
	require.NoError(t, err)

	var reloaded models.Event
	require.NoError(t, db.Preload("Applications").First(&reloaded, event.ID).Error)
	reloaded.PopulateVolunteers()
	assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, reloaded.AppliedVolunteers)
	assert.Equal(t, []uint{alice.ID}, reloaded.SelectedVolunteers)

	pending, err := apps.List(event.ID, 0)
	require.NoError(t, err)
	statuses := map[uint]string{}
	for _, a := range pending {
		statuses[a.VolunteerID] = a.Status
	}
	assert.Equal(t, models.ApplicationStatusAccepted, statuses[alice.ID])
	assert.Equal(t, models.ApplicationStatusPending, statuses[bob.ID])

	// Completion issues certificates to accepted volunteers only.
	count, err := certs.IssueForEvent(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, db.First(&reloaded, event.ID).Error)
	assert.Equal(t, models.EventStatusCompleted, reloaded.Status)

	aliceCerts, err := certs.ForVolunteer(alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceCerts, 1)

	bobCerts, err := certs.ForVolunteer(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobCerts)

	// The public verification code resolves without any authentication context.
	found, err := certs.Verify(aliceCerts[0].VerificationCode)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Alice", found.VolunteerName)
	assert.Equal(t, "Park Restoration", found.EventTitle)

	// Applying to a completed event is refused.
	late := createUser(t, db, "Late", "late@example.test", models.RoleVolunteer)
	_, err = apps.Apply(event.ID, late.ID, late.Name, late.Email, "")
	assert.ErrorIs(t, err, ErrEventCompleted)
}
