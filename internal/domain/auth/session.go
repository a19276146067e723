package auth

import "errors"

var (
	ErrNotSuperAdmin        = errors.New("only super-admin can impersonate a company")
	ErrAlreadyImpersonating = errors.New("already impersonating a company")
	ErrCompanyRequired      = errors.New("company id required")
)

// Session is the two-state impersonation machine: a global session has no
// CompanyID; an impersonating session keeps Role super-admin, records the
// target company and remembers OriginalRole for the switch back.
type Session struct {
	Role         string
	CompanyID    string
	OriginalRole string
}

func GlobalSession(role string) Session {
	return Session{Role: role}
}

func CompanySession(role, companyID string) Session {
	return Session{Role: role, CompanyID: companyID}
}

func (s Session) Impersonating() bool {
	return s.Role == RoleSuperAdmin && s.CompanyID != ""
}

// Effective resolves the role used for permission checks and menu
// computation: a super-admin scoped to a company acts as that company's
// admin, everyone else keeps their stored role.
func (s Session) Effective() string {
	return EffectiveRole(s.Role, s.CompanyID)
}

func EffectiveRole(role, companyID string) string {
	if role == RoleSuperAdmin && companyID != "" {
		return RoleAdmin
	}
	return role
}

// SwitchCompany transitions global → impersonating. Switching while already
// impersonating is rejected; the caller must switch back first.
func (s Session) SwitchCompany(companyID string) (Session, error) {
	if s.Role != RoleSuperAdmin {
		return s, ErrNotSuperAdmin
	}
	if s.CompanyID != "" {
		return s, ErrAlreadyImpersonating
	}
	if companyID == "" {
		return s, ErrCompanyRequired
	}
	return Session{Role: RoleSuperAdmin, CompanyID: companyID, OriginalRole: RoleSuperAdmin}, nil
}

// SwitchBack transitions impersonating → global. On a session that never
// impersonated it keeps the stored role unchanged.
func (s Session) SwitchBack() Session {
	if s.Role != RoleSuperAdmin {
		return Session{Role: s.Role}
	}
	return Session{Role: RoleSuperAdmin}
}
