package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/lettora/rentals-service/internal/models"
)

/*
Step payload DTOs. One request type per wizard step; validation happens
here, before anything reaches the service layer. Payloads that fail
validation are never persisted.
*/

type NextOfKinDTO struct {
	FullName     string `json:"full_name" validate:"required"`
	Relationship string `json:"relationship" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
}

type PersonalKinRequest struct {
	PropertyID  uuid.UUID    `json:"property_id" validate:"required"`
	FirstName   string       `json:"first_name" validate:"required"`
	LastName    string       `json:"last_name" validate:"required"`
	Email       string       `json:"email" validate:"required,email"`
	Phone       string       `json:"phone" validate:"required"`
	DateOfBirth string       `json:"date_of_birth" validate:"required"`
	NextOfKin   NextOfKinDTO `json:"next_of_kin" validate:"required"`
}

type ResidentialAddressRequest struct {
	Address        string  `json:"address" validate:"required"`
	City           string  `json:"city" validate:"required"`
	State          string  `json:"state" validate:"required"`
	ZipCode        string  `json:"zip_code" validate:"required"`
	YearsAtAddress float64 `json:"years_at_address" validate:"gte=0"`
	ReasonForMove  string  `json:"reason_for_move"`
}

type EmploymentDetailsRequest struct {
	EmploymentStatus string  `json:"employment_status" validate:"required"`
	EmployerName     string  `json:"employer_name"`
	JobTitle         string  `json:"job_title"`
	MonthlyIncome    float64 `json:"monthly_income" validate:"gte=0"`
	EmployerPhone    string  `json:"employer_phone"`
	EmployerAddress  string  `json:"employer_address"`
}

type AdditionalDetailsRequest struct {
	MoveInDate time.Time `json:"move_in_date" validate:"required"`
	HasPets    bool      `json:"has_pets"`
	PetDetails string    `json:"pet_details"`
	IsSmoker   bool      `json:"is_smoker"`
	Notes      string    `json:"notes"`
}

type RefereeDTO struct {
	FullName     string `json:"full_name" validate:"required"`
	Relationship string `json:"relationship" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
}

type RefereesRequest struct {
	Referees []RefereeDTO `json:"referees" validate:"required,min=1,dive"`
}

type DocumentRefDTO struct {
	Kind     string `json:"kind" validate:"required"`
	FileName string `json:"file_name" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

type DocumentsRequest struct {
	Documents []DocumentRefDTO `json:"documents" validate:"required,min=1,dive"`
}

type GuarantorRequest struct {
	HasGuarantor bool   `json:"has_guarantor"`
	FullName     string `json:"full_name" validate:"required_if=HasGuarantor true"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Relationship string `json:"relationship"`
}

type DeclarationRequest struct {
	Acknowledgements []string `json:"acknowledgements" validate:"required,min=1"`
}

// ChecklistRequest has no form fields; the checklist step is an action,
// recorded unconditionally before the completion/payment branch.
type ChecklistRequest struct{}

/*
Responses.
*/

type ApplicationDTO struct {
	ID             uuid.UUID                    `json:"id"`
	TenantID       uuid.UUID                    `json:"tenant_id"`
	PropertyID     uuid.UUID                    `json:"property_id"`
	Status         models.ApplicationStatusType `json:"status"`
	LastStep       *models.StepKey              `json:"last_step,omitempty"`
	CompletedSteps []models.StepKey             `json:"completed_steps"`
	CurrentStepID  int                          `json:"current_step_id"`
	RowVersion     int64                        `json:"row_version"`
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
	CompletedAt    *time.Time                   `json:"completed_at,omitempty"`
}

// ApplicationEnvelope mirrors the API envelope the web client consumes.
type ApplicationEnvelope struct {
	Application ApplicationDTO `json:"application"`
}

// CompleteResponse is the terminal-branch outcome: either the application
// completed outright, or a payment must be collected first.
type CompleteResponse struct {
	ID      uuid.UUID                    `json:"id"`
	Status  models.ApplicationStatusType `json:"status"`
	Payment *PaymentDetailsDTO           `json:"payment,omitempty"`
}
