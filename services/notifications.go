package services

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Notifier delivers the workflow emails. All sends are best-effort: callers
// never fail their primary operation on a notification error.
type Notifier interface {
	OnApply(organiserEmail, volunteerName, eventTitle string, eventID uint)
	OnApproval(volunteerEmail, volunteerName, eventTitle string, eventID uint)
	OnCertificate(volunteerEmail, volunteerName, eventTitle, certificateURL, verifyURL string)
}

// EmailNotifier formats the notification templates and hands them to the mailer.
type EmailNotifier struct {
	mailer  *Mailer
	baseURL string
	log     *zerolog.Logger
}

func NewEmailNotifier(mailer *Mailer, baseURL string, log *zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, baseURL: baseURL, log: log}
}

func (n *EmailNotifier) OnApply(organiserEmail, volunteerName, eventTitle string, eventID uint) {
	if organiserEmail == "" {
		return
	}
	subject := fmt.Sprintf("New application for %s", eventTitle)
	body := fmt.Sprintf("%s has applied to volunteer at \"%s\".\n\nReview the application: %s/event/%d",
		volunteerName, eventTitle, n.baseURL, eventID)
	if err := n.mailer.Send(organiserEmail, subject, body); err != nil {
		n.log.Warn().Err(err).Str("to", organiserEmail).Msg("failed to send apply notification")
	}
}

func (n *EmailNotifier) OnApproval(volunteerEmail, volunteerName, eventTitle string, eventID uint) {
	if volunteerEmail == "" {
		return
	}
	subject := fmt.Sprintf("You were accepted for %s", eventTitle)
	body := fmt.Sprintf("Hi %s,\n\nYour application for \"%s\" was accepted. See the event details: %s/event/%d",
		volunteerName, eventTitle, n.baseURL, eventID)
	if err := n.mailer.Send(volunteerEmail, subject, body); err != nil {
		n.log.Warn().Err(err).Str("to", volunteerEmail).Msg("failed to send approval notification")
	}
}

func (n *EmailNotifier) OnCertificate(volunteerEmail, volunteerName, eventTitle, certificateURL, verifyURL string) {
	if volunteerEmail == "" {
		return
	}
	subject := fmt.Sprintf("Your certificate for %s", eventTitle)
	body := fmt.Sprintf("Hi %s,\n\nThank you for volunteering at \"%s\". Your participation certificate is ready:\n%s\n\nAnyone can verify it at %s",
		volunteerName, eventTitle, certificateURL, verifyURL)
	if err := n.mailer.Send(volunteerEmail, subject, body); err != nil {
		n.log.Warn().Err(err).Str("to", volunteerEmail).Msg("failed to send certificate notification")
	}
}
