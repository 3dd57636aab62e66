package domain

import "time"

// RegistrationStatus is the lifecycle state of an employer registration.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

// registrationTransitions defines the allowed state machine transitions.
// APPROVED and REJECTED are terminal.
var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationPending: {RegistrationApproved, RegistrationRejected},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RegistrationStatus) Terminal() bool {
	return len(registrationTransitions[s]) == 0
}

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	}
	return false
}

// DefaultNotes is the note stored with a decision when the admin supplies none.
func (s RegistrationStatus) DefaultNotes() string {
	switch s {
	case RegistrationApproved:
		return "Your request has been approved."
	case RegistrationRejected:
		return "Your request has been rejected."
	}
	return ""
}

// CompanyInfo is the company and contact data submitted with a registration.
type CompanyInfo struct {
	CompanyName        string `json:"company_name"`
	CompanyAddress     string `json:"company_address"`
	Website            string `json:"website,omitempty"`
	ContactPerson      string `json:"contact_person"`
	ContactEmail       string `json:"contact_email"`
	ContactPhone       string `json:"contact_phone"`
	CompanyDescription string `json:"company_description,omitempty"`
	Industry           string `json:"industry,omitempty"`
	CompanySize        string `json:"company_size,omitempty"`
	ApplicantNotes     string `json:"applicant_notes,omitempty"`
}

// EmployerRegistration is a user's request to be granted the employer role.
type EmployerRegistration struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Company     CompanyInfo        `json:"company"`
	Status      RegistrationStatus `json:"status"`
	Notes       string             `json:"notes,omitempty"`
	ProcessedBy string             `json:"processed_by,omitempty"`
	ProcessedAt *time.Time         `json:"processed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
