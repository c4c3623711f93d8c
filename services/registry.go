package services

// Shared service instances, wired in main after storage initialization.
var (
	Applications *ApplicationService
	Certificates *CertificateService
	Messaging    *MessagingService
	Mail         *Mailer
)
