package domain

// Principal is the verified identity carried by an access token.
type Principal struct {
	SubjectID    string     `json:"sub"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"name"`
	Roles        []RoleName `json:"roles"`
	TokenVersion int        `json:"token_version"`
}

// HasRole reports whether the token-embedded roles include r.
func (p *Principal) HasRole(r RoleName) bool {
	if p == nil {
		return false
	}
	for _, held := range p.Roles {
		if held == r {
			return true
		}
	}
	return false
}

// Valid reports whether p identifies a subject at all.
func (p *Principal) Valid() bool {
	return p != nil && p.SubjectID != ""
}

// RefreshClaims is the minimal claim set carried by a refresh token.
type RefreshClaims struct {
	SubjectID    string `json:"sub"`
	TokenVersion int    `json:"token_version"`
}
