package shared

import "testing"

func TestValidatorCollectsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("name", "  ", "name is required")
	v.Enum("cycleType", "hourly", []string{"monthly", "weekly", "daily"}, "unknown cycle type")
	v.Positive("baseSalary", 0, "base salary must be positive")

	if !v.HasIssues() {
		t.Fatal("expected issues")
	}
	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3", len(issues))
	}
}

func TestValidatorEnumAcceptsCaseInsensitive(t *testing.T) {
	v := NewValidator()
	v.Enum("method", "CASH", []string{"cash", "bank_transfer"}, "unknown method")
	if v.HasIssues() {
		t.Fatalf("unexpected issues: %v", v.Issues())
	}
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start, ok := v.Date("periodStart", "2026-08-31")
	if !ok {
		t.Fatal("start should parse")
	}
	end, ok := v.Date("periodEnd", "2026-08-01")
	if !ok {
		t.Fatal("end should parse")
	}
	v.DateOrder("periodStart", start, "periodEnd", end)
	if !v.HasIssues() {
		t.Fatal("reversed period must be rejected")
	}
}
