package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StepKey is the stable identifier for one page of the application wizard.
type StepKey string

const (
	StepPersonalKin        StepKey = "PERSONAL_KIN"
	StepResidentialAddress StepKey = "RESIDENTIAL_ADDRESS"
	StepEmploymentDetails  StepKey = "EMPLOYMENT_DETAILS"
	StepAdditionalDetails  StepKey = "ADDITIONAL_DETAILS"
	StepReferees           StepKey = "REFEREES"
	StepDocuments          StepKey = "DOCUMENTS"
	StepGuarantor          StepKey = "GUARANTOR"
	StepDeclaration        StepKey = "DECLARATION"
	StepChecklist          StepKey = "CHECKLIST"
)

type ApplicationStatusType string

const (
	ApplicationStatusInProgress     ApplicationStatusType = "IN_PROGRESS"
	ApplicationStatusPendingPayment ApplicationStatusType = "PENDING_PAYMENT"
	ApplicationStatusCompleted      ApplicationStatusType = "COMPLETED"
)

// RentalApplication is the server-held wizard state. The step payloads are
// stored as jsonb; their shapes are validated at the DTO boundary.
type RentalApplication struct {
	Versioned

	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	PropertyID uuid.UUID `json:"property_id"`

	Status         ApplicationStatusType `json:"status"`
	LastStep       *StepKey              `json:"last_step,omitempty"`
	CompletedSteps []StepKey             `json:"completed_steps"`

	PersonalDetails      json.RawMessage `json:"personal_details,omitempty"`
	ResidentialInfo      json.RawMessage `json:"residential_info,omitempty"`
	EmploymentInfo       json.RawMessage `json:"employment_info,omitempty"`
	AdditionalDetails    json.RawMessage `json:"additional_details,omitempty"`
	Referees             json.RawMessage `json:"referees,omitempty"`
	Documents            json.RawMessage `json:"documents,omitempty"`
	GuarantorInformation json.RawMessage `json:"guarantor_information,omitempty"`
	Declaration          []string        `json:"declaration,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (a *RentalApplication) GetID() string {
	return a.ID.String()
}

// HasCompletedStep is a membership test against CompletedSteps; ordering
// is irrelevant here, only the server-reported set matters.
func (a *RentalApplication) HasCompletedStep(k StepKey) bool {
	for _, s := range a.CompletedSteps {
		if s == k {
			return true
		}
	}
	return false
}
