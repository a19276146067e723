package payroll

import (
	"errors"
	"testing"

	"payflow/internal/domain/employee"
)

func TestPlanEditRefusedOutsideDraft(t *testing.T) {
	for _, status := range []string{RunStatusApproved, RunStatusClosed} {
		_, err := PlanEdit(status, employee.ContractJournalier, CycleDaily, 10000,
			Payslip{Gross: 50000}, EditRequest{WorkedDays: fp(10)})
		if !errors.Is(err, ErrRunNotEditable) {
			t.Fatalf("status %s: got %v, want ErrRunNotEditable", status, err)
		}
	}
}

func TestPlanEditRecomputesThroughCalculator(t *testing.T) {
	decision, err := PlanEdit(RunStatusDraft, employee.ContractJournalier, CycleDaily, 10000,
		Payslip{Gross: 50000, Deductions: 2000}, EditRequest{WorkedDays: fp(12), Deductions: fp(5000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Gross != 120000 || decision.Net != 115000 {
		t.Fatalf("got gross=%v net=%v, want 120000/115000", decision.Gross, decision.Net)
	}
	if decision.WorkedDays == nil || *decision.WorkedDays != 12 {
		t.Fatalf("worked days not carried: %+v", decision.WorkedDays)
	}
}

func TestPlanEditBaseSalaryOnlyForDailyJournalier(t *testing.T) {
	cases := []struct {
		name     string
		contract string
		cycle    string
		want     bool
	}{
		{"journalier daily", employee.ContractJournalier, CycleDaily, true},
		{"journalier monthly", employee.ContractJournalier, CycleMonthly, false},
		{"honoraire daily", employee.ContractHonoraire, CycleDaily, false},
		{"cdi monthly", employee.ContractCDI, CycleMonthly, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := PlanEdit(RunStatusDraft, tc.contract, tc.cycle, 10000,
				Payslip{Gross: 1000}, EditRequest{BaseSalary: fp(15000)})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision.UpdateBaseSalary != tc.want {
				t.Fatalf("UpdateBaseSalary = %v, want %v", decision.UpdateBaseSalary, tc.want)
			}
			if tc.want && decision.NewBaseSalary != 15000 {
				t.Fatalf("NewBaseSalary = %v, want 15000", decision.NewBaseSalary)
			}
		})
	}
}

func TestPlanEditRecomputeUsesStoredBaseSalary(t *testing.T) {
	decision, err := PlanEdit(RunStatusDraft, employee.ContractJournalier, CycleDaily, 10000,
		Payslip{Gross: 0}, EditRequest{WorkedDays: fp(10), BaseSalary: fp(20000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Gross != 100000 {
		t.Fatalf("gross = %v, want 100000 computed from the pre-edit salary", decision.Gross)
	}
	if !decision.UpdateBaseSalary || decision.NewBaseSalary != 20000 {
		t.Fatalf("base salary update not planned: %+v", decision)
	}
}

func TestPlanEditIgnoresNonPositiveBaseSalary(t *testing.T) {
	decision, err := PlanEdit(RunStatusDraft, employee.ContractJournalier, CycleDaily, 10000,
		Payslip{Gross: 1000}, EditRequest{BaseSalary: fp(-5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.UpdateBaseSalary {
		t.Fatal("negative base salary must not be applied")
	}
}

func TestValidRunTransition(t *testing.T) {
	allowed := map[[2]string]bool{
		{RunStatusDraft, RunStatusApproved}:  true,
		{RunStatusApproved, RunStatusClosed}: true,
	}
	statuses := []string{RunStatusDraft, RunStatusApproved, RunStatusClosed}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]string{from, to}]
			if got := ValidRunTransition(from, to); got != want {
				t.Fatalf("transition %s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}
