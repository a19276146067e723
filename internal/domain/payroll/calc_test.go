package payroll

import (
	"testing"

	"payflow/internal/domain/employee"
)

func fp(v float64) *float64 { return &v }

func TestComputeJournalierDailyUsesDays(t *testing.T) {
	got := Compute(CalcInput{
		ContractType:     employee.ContractJournalier,
		CycleType:        CycleDaily,
		BaseSalary:       10000,
		WorkedDays:       fp(12),
		Deductions:       fp(5000),
		StoredGross:      0,
		StoredDeductions: 0,
	})
	if got.Gross != 120000 {
		t.Fatalf("gross = %v, want 120000", got.Gross)
	}
	if got.Net != 115000 {
		t.Fatalf("net = %v, want 115000", got.Net)
	}
}

func TestComputeJournalierDailyFallsBackToHours(t *testing.T) {
	got := Compute(CalcInput{
		ContractType: employee.ContractJournalier,
		CycleType:    CycleDaily,
		BaseSalary:   10000,
		WorkedDays:   fp(0),
		WorkedHours:  fp(8),
		StoredGross:  40000,
	})
	if got.Gross != 80000 {
		t.Fatalf("gross = %v, want 80000 from hours fallback", got.Gross)
	}
}

func TestComputeJournalierWeeklyIgnoresDays(t *testing.T) {
	got := Compute(CalcInput{
		ContractType: employee.ContractJournalier,
		CycleType:    CycleWeekly,
		BaseSalary:   2000,
		WorkedDays:   fp(5),
		WorkedHours:  fp(40),
		StoredGross:  1,
	})
	if got.Gross != 80000 {
		t.Fatalf("gross = %v, want 80000 (hours only outside daily cycle)", got.Gross)
	}
}

func TestComputeHonoraireFractionalHours(t *testing.T) {
	got := Compute(CalcInput{
		ContractType: employee.ContractHonoraire,
		CycleType:    CycleMonthly,
		BaseSalary:   2500,
		WorkedHours:  fp(37.5),
		StoredGross:  0,
	})
	if got.Gross != 93750 {
		t.Fatalf("gross = %v, want 93750", got.Gross)
	}
	if got.Net != 93750 {
		t.Fatalf("net = %v, want 93750", got.Net)
	}
}

func TestComputeHonoraireIgnoresDays(t *testing.T) {
	got := Compute(CalcInput{
		ContractType: employee.ContractHonoraire,
		CycleType:    CycleDaily,
		BaseSalary:   2500,
		WorkedDays:   fp(20),
		StoredGross:  12345,
	})
	if got.Gross != 12345 {
		t.Fatalf("gross = %v, want stored 12345 (day counts never apply)", got.Gross)
	}
}

func TestComputeFixedContractsKeepGross(t *testing.T) {
	for _, contract := range []string{employee.ContractCDI, employee.ContractCDD} {
		got := Compute(CalcInput{
			ContractType:     contract,
			CycleType:        CycleMonthly,
			BaseSalary:       999999,
			WorkedDays:       fp(30),
			WorkedHours:      fp(200),
			Deductions:       fp(20000),
			StoredGross:      500000,
			StoredDeductions: 0,
		})
		if got.Gross != 500000 {
			t.Fatalf("%s: gross = %v, want stored 500000", contract, got.Gross)
		}
		if got.Net != 480000 {
			t.Fatalf("%s: net = %v, want 480000", contract, got.Net)
		}
	}
}

func TestComputeKeepsGrossOnUnusableUnits(t *testing.T) {
	cases := []struct {
		name  string
		days  *float64
		hours *float64
	}{
		{"absent", nil, nil},
		{"zero", fp(0), fp(0)},
		{"negative", fp(-3), fp(-8)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(CalcInput{
				ContractType:     employee.ContractJournalier,
				CycleType:        CycleDaily,
				BaseSalary:       10000,
				WorkedDays:       tc.days,
				WorkedHours:      tc.hours,
				StoredGross:      70000,
				StoredDeductions: 5000,
			})
			if got.Gross != 70000 {
				t.Fatalf("gross = %v, want stored 70000", got.Gross)
			}
			if got.Deductions != 5000 {
				t.Fatalf("deductions = %v, want stored 5000", got.Deductions)
			}
			if got.Net != 65000 {
				t.Fatalf("net = %v, want 65000", got.Net)
			}
		})
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	in := CalcInput{
		ContractType:     employee.ContractJournalier,
		CycleType:        CycleDaily,
		BaseSalary:       10000,
		WorkedDays:       fp(12),
		Deductions:       fp(5000),
		StoredGross:      0,
		StoredDeductions: 0,
	}
	first := Compute(in)

	in.StoredGross = first.Gross
	in.StoredDeductions = first.Deductions
	second := Compute(in)

	if first != second {
		t.Fatalf("recompute changed the breakdown: %+v vs %+v", first, second)
	}
}

func TestComputeNetAlwaysGrossMinusDeductions(t *testing.T) {
	inputs := []CalcInput{
		{ContractType: employee.ContractCDI, StoredGross: 100, StoredDeductions: 40},
		{ContractType: employee.ContractJournalier, CycleType: CycleDaily, BaseSalary: 10, WorkedDays: fp(3), Deductions: fp(7)},
		{ContractType: employee.ContractHonoraire, CycleType: CycleMonthly, BaseSalary: 50, WorkedHours: fp(2), StoredDeductions: 25},
	}
	for i, in := range inputs {
		got := Compute(in)
		if got.Net != got.Gross-got.Deductions {
			t.Fatalf("case %d: net %v != gross %v - deductions %v", i, got.Net, got.Gross, got.Deductions)
		}
	}
}

func TestPositiveOrKeep(t *testing.T) {
	if _, ok := PositiveOrKeep(nil); ok {
		t.Fatal("nil should report no change")
	}
	if _, ok := PositiveOrKeep(fp(0)); ok {
		t.Fatal("zero should report no change")
	}
	if _, ok := PositiveOrKeep(fp(-1)); ok {
		t.Fatal("negative should report no change")
	}
	if v, ok := PositiveOrKeep(fp(4.5)); !ok || v != 4.5 {
		t.Fatalf("got (%v, %v), want (4.5, true)", v, ok)
	}
}
