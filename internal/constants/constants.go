package constants

import "time"

const (
	// FeedbackGracePeriod is how long after the effective viewing time a
	// confirmed invite sits before the sweep moves it to AWAITING_FEEDBACK.
	FeedbackGracePeriod = 2 * time.Hour

	// ViewingReminderLeadTime is how far ahead of the viewing the
	// reminder SMS/email goes out.
	ViewingReminderLeadTime = 24 * time.Hour

	// Cron specs for the maintenance jobs in main.
	FeedbackSweepCronSpec   = "*/10 * * * *"
	ViewingReminderCronSpec = "0 * * * *"

	// CronJobTimeout bounds each maintenance job run.
	CronJobTimeout = 5 * time.Minute

	// Stripe metadata keys on application-fee PaymentIntents.
	StripeMetaApplicationID = "application_id"
	StripeMetaTenantID      = "tenant_id"

	DefaultPageSize = 20
	MaxPageSize     = 100
)
