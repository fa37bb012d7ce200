package routes

const (
	// Health
	Health = "/health"

	// Application wizard. One endpoint per step; the server decides the
	// resume point, the client never advances on its own.
	ApplicationsBase    = "/api/v1/applications"
	ApplicationByID     = "/api/v1/applications/{id}"
	ApplicationResume   = "/api/v1/applications/resume"
	ApplicationComplete = "/api/v1/applications/{id}/complete"

	StepPersonalKin        = "/api/v1/applications/steps/personal-kin"
	StepResidentialAddress = "/api/v1/applications/{id}/steps/residential-address"
	StepEmploymentDetails  = "/api/v1/applications/{id}/steps/employment-details"
	StepAdditionalDetails  = "/api/v1/applications/{id}/steps/additional-details"
	StepReferees           = "/api/v1/applications/{id}/steps/referees"
	StepDocuments          = "/api/v1/applications/{id}/steps/documents"
	StepGuarantor          = "/api/v1/applications/{id}/steps/guarantor"
	StepDeclaration        = "/api/v1/applications/{id}/steps/declaration"
	StepChecklist          = "/api/v1/applications/{id}/steps/checklist"

	// Viewing invites
	InvitesBase     = "/api/v1/invites"
	InviteByID      = "/api/v1/invites/{id}"
	InviteRespond   = "/api/v1/invites/{id}/respond"
	InvitesLandlord = "/api/v1/landlord/invites"

	// Payments
	PaymentsBase  = "/api/v1/payments"
	StripeWebhook = "/api/v1/payments/stripe-webhook"

	// Properties and saved properties
	PropertiesBase    = "/api/v1/properties"
	PropertyByID      = "/api/v1/properties/{id}"
	SavedProperties   = "/api/v1/properties/saved"
	SavedPropertyByID = "/api/v1/properties/saved/{id}"

	// Messaging
	ThreadsBase    = "/api/v1/messages/threads"
	ThreadByID     = "/api/v1/messages/threads/{id}"
	ThreadMessages = "/api/v1/messages/threads/{id}/messages"
)
