package auth

import "testing"

func TestEffectiveRole(t *testing.T) {
	cases := []struct {
		role      string
		companyID string
		want      string
	}{
		{RoleSuperAdmin, "", RoleSuperAdmin},
		{RoleSuperAdmin, "c1", RoleAdmin},
		{RoleAdmin, "", RoleAdmin},
		{RoleAdmin, "c1", RoleAdmin},
		{RoleCaissier, "c1", RoleCaissier},
		{RoleVigile, "c1", RoleVigile},
		{RoleEmployee, "c1", RoleEmployee},
	}

	for _, tc := range cases {
		if got := EffectiveRole(tc.role, tc.companyID); got != tc.want {
			t.Fatalf("EffectiveRole(%q, %q) = %q, want %q", tc.role, tc.companyID, got, tc.want)
		}
	}
}

func TestSwitchCompany(t *testing.T) {
	session, err := GlobalSession(RoleSuperAdmin).SwitchCompany("c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.Impersonating() {
		t.Fatal("expected impersonating session")
	}
	if session.Effective() != RoleAdmin {
		t.Fatalf("expected effective admin, got %q", session.Effective())
	}
	if session.OriginalRole != RoleSuperAdmin {
		t.Fatalf("expected originalRole super-admin, got %q", session.OriginalRole)
	}
}

func TestSwitchCompanyRequiresSuperAdmin(t *testing.T) {
	if _, err := GlobalSession(RoleAdmin).SwitchCompany("c1"); err != ErrNotSuperAdmin {
		t.Fatalf("expected ErrNotSuperAdmin, got %v", err)
	}
}

func TestSwitchCompanyRejectsDoubleImpersonation(t *testing.T) {
	session, err := GlobalSession(RoleSuperAdmin).SwitchCompany("c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := session.SwitchCompany("c2"); err != ErrAlreadyImpersonating {
		t.Fatalf("expected ErrAlreadyImpersonating, got %v", err)
	}
}

func TestSwitchCompanyRequiresCompanyID(t *testing.T) {
	if _, err := GlobalSession(RoleSuperAdmin).SwitchCompany(""); err != ErrCompanyRequired {
		t.Fatalf("expected ErrCompanyRequired, got %v", err)
	}
}

func TestSwitchBackRestoresGlobalSession(t *testing.T) {
	session, err := GlobalSession(RoleSuperAdmin).SwitchCompany("c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := session.SwitchBack()
	if restored.Impersonating() {
		t.Fatal("expected global session after switch back")
	}
	if restored.Effective() != RoleSuperAdmin {
		t.Fatalf("expected super-admin after switch back, got %q", restored.Effective())
	}
	if restored.CompanyID != "" || restored.OriginalRole != "" {
		t.Fatalf("expected cleared company context, got %+v", restored)
	}
}

func TestSwitchBackDoesNotEscalate(t *testing.T) {
	restored := CompanySession(RoleAdmin, "c1").SwitchBack()
	if restored.Role != RoleAdmin {
		t.Fatalf("expected admin to stay admin, got %q", restored.Role)
	}
}
