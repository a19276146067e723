package payroll

import "payflow/internal/domain/employee"

// CalcInput carries everything the gross/net computation reads. Unit
// fields are nil when the caller supplied nothing usable; the stored
// values are the payslip's current amounts.
type CalcInput struct {
	ContractType     string
	CycleType        string
	BaseSalary       float64
	WorkedDays       *float64
	WorkedHours      *float64
	Deductions       *float64
	StoredGross      float64
	StoredDeductions float64
}

type Breakdown struct {
	Gross      float64
	Deductions float64
	Net        float64
}

// PositiveOrKeep returns the supplied unit value when it is present and
// strictly positive. Absent, zero and negative inputs report no change,
// never an error; the caller keeps the stored amount instead.
func PositiveOrKeep(value *float64) (float64, bool) {
	if value == nil || *value <= 0 {
		return 0, false
	}
	return *value, true
}

// Compute derives gross, deductions and net for one payslip. It is pure
// and idempotent: feeding a payslip's own stored values back in yields
// the same breakdown.
//
// Gross rules by contract type:
//   - journalier in a daily cycle: baseSalary x workedDays, falling back
//     to baseSalary x workedHours when no usable day count was given;
//   - journalier in any other cycle: baseSalary x workedHours only;
//   - honoraire: baseSalary x workedHours only;
//   - CDI and CDD: the stored gross, never recomputed from units.
//
// When no rule fires the stored gross is kept unchanged.
func Compute(in CalcInput) Breakdown {
	gross := in.StoredGross

	switch in.ContractType {
	case employee.ContractJournalier:
		if in.CycleType == CycleDaily {
			if days, ok := PositiveOrKeep(in.WorkedDays); ok {
				gross = in.BaseSalary * days
				break
			}
		}
		if hours, ok := PositiveOrKeep(in.WorkedHours); ok {
			gross = in.BaseSalary * hours
		}
	case employee.ContractHonoraire:
		if hours, ok := PositiveOrKeep(in.WorkedHours); ok {
			gross = in.BaseSalary * hours
		}
	}

	deductions := in.StoredDeductions
	if in.Deductions != nil {
		deductions = *in.Deductions
	}

	return Breakdown{
		Gross:      gross,
		Deductions: deductions,
		Net:        gross - deductions,
	}
}
