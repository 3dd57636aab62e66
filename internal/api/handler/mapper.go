package handler

import (
	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// --- Request → Service input ---

func toCompanyInfo(r companyRequest) domain.CompanyInfo {
	return domain.CompanyInfo{
		CompanyName:        r.CompanyName,
		CompanyAddress:     r.CompanyAddress,
		Website:            r.Website,
		ContactPerson:      r.ContactPerson,
		ContactEmail:       r.ContactEmail,
		ContactPhone:       r.ContactPhone,
		CompanyDescription: r.CompanyDescription,
		Industry:           r.Industry,
		CompanySize:        r.CompanySize,
		ApplicantNotes:     r.ApplicantNotes,
	}
}

func toDecision(r decisionRequest) (ports.Decision, error) {
	d := ports.Decision{
		Status: domain.RegistrationStatus(r.Status),
		Notes:  r.Notes,
	}
	if r.TargetRole != "" {
		role, err := domain.ParseRoleName(r.TargetRole)
		if err != nil {
			return ports.Decision{}, err
		}
		d.TargetRole = role
	}
	return d, nil
}

func toCreateUserInput(r createUserRequest) (ports.CreateUserInput, error) {
	in := ports.CreateUserInput{
		Email:       r.Email,
		Password:    r.Password,
		DisplayName: r.DisplayName,
	}
	if r.Role != "" {
		role, err := domain.ParseRoleName(r.Role)
		if err != nil {
			return ports.CreateUserInput{}, err
		}
		in.Role = role
	}
	return in, nil
}

func toUserUpdate(r updateUserRequest) ports.UserUpdate {
	return ports.UserUpdate{
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Password:    r.Password,
	}
}

// --- Service output → Response ---

func toUserResponse(v domain.UserView) userResponse {
	return userResponse{
		ID:          v.ID,
		Email:       v.Email,
		DisplayName: v.DisplayName,
		Roles:       roleStrings(v.Roles),
	}
}

func principalResponse(p *domain.Principal) userResponse {
	return userResponse{
		ID:          p.SubjectID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Roles:       roleStrings(p.Roles),
	}
}

func loginResponse(r *ports.LoginResult) tokenResponse {
	refreshExp := r.RefreshExpiresAt
	return tokenResponse{
		TokenType:        "Bearer",
		AccessToken:      r.AccessToken,
		AccessExpiresAt:  r.AccessExpiresAt,
		RefreshToken:     r.RefreshToken,
		RefreshExpiresAt: &refreshExp,
		User:             toUserResponse(r.User),
	}
}

func refreshResponse(r *ports.RefreshResult) tokenResponse {
	return tokenResponse{
		TokenType:       "Bearer",
		AccessToken:     r.AccessToken,
		AccessExpiresAt: r.AccessExpiresAt,
		User:            toUserResponse(r.User),
	}
}

func roleStrings(roles []domain.RoleName) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

