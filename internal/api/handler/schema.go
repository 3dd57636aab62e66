package handler

import (
	"time"

	"github.com/jobhub/identity/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// --- Auth ---

type registerRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,max=72"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
}

type registerResponse struct {
	User *domain.User `json:"user"`
}

type tokenResponse struct {
	TokenType        string       `json:"token_type"`
	AccessToken      string       `json:"access_token"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	RefreshToken     string       `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time   `json:"refresh_expires_at,omitempty"`
	User             userResponse `json:"user"`
}

type revokeResponse struct {
	UserID       string `json:"user_id"`
	TokenVersion int    `json:"token_version"`
}

// --- User administration ---

type createUserRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Role        string `json:"role"`
}

type updateUserRequest struct {
	Email       *string `json:"email"        validate:"omitempty,email"`
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=100"`
	Password    *string `json:"password"     validate:"omitempty,min=6,max=72"`
}

// --- Employer registrations ---

type companyRequest struct {
	CompanyName        string `json:"company_name"        validate:"required,max=200"`
	CompanyAddress     string `json:"company_address"     validate:"required"`
	Website            string `json:"website"             validate:"omitempty,url"`
	ContactPerson      string `json:"contact_person"      validate:"required"`
	ContactEmail       string `json:"contact_email"       validate:"required,email"`
	ContactPhone       string `json:"contact_phone"       validate:"required"`
	CompanyDescription string `json:"company_description" validate:"omitempty,max=2000"`
	Industry           string `json:"industry"`
	CompanySize        string `json:"company_size"`
	ApplicantNotes     string `json:"applicant_notes"     validate:"omitempty,max=1000"`
}

type decisionRequest struct {
	Status     string `json:"status"      validate:"required,oneof=APPROVED REJECTED"`
	TargetRole string `json:"target_role" validate:"omitempty"`
	Notes      string `json:"notes"       validate:"omitempty,max=1000"`
}

type decisionResponse struct {
	Registration *domain.EmployerRegistration `json:"registration"`
	UserRole     *domain.UserRole             `json:"user_role,omitempty"`
}

// --- Access administration ---

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type assignPermissionRequest struct {
	Code string `json:"code" validate:"required"`
}

type createPermissionRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Code        string `json:"code"        validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}
