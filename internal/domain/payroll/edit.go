package payroll

import "payflow/internal/domain/employee"

// EditRequest is a payslip correction. Unit and money fields are nil
// when the caller left them out; profile fields ride along so one edit
// screen can fix the employee record too.
type EditRequest struct {
	WorkedDays  *float64
	WorkedHours *float64
	Deductions  *float64
	BaseSalary  *float64

	Position      *string
	MaritalStatus *string
	Nationality   *string
	Email         *string
	Phone         *string
	BankDetails   *string
}

// EditDecision is the fully-resolved outcome of an edit: the new payslip
// amounts plus whether the employee's base salary changes. The payslip
// row is written first; the employee row second.
type EditDecision struct {
	Breakdown
	WorkedDays  *float64
	WorkedHours *float64

	UpdateBaseSalary bool
	NewBaseSalary    float64
}

// PlanEdit resolves an edit against the current run, payslip and
// employee state without touching storage.
//
// A run that left draft refuses the edit outright. The base salary
// update only applies to journalier employees inside a daily cycle, and
// the recompute still uses the salary stored before the edit; the new
// salary only takes effect from the next generation.
func PlanEdit(runStatus, contractType, cycleType string, baseSalary float64, slip Payslip, req EditRequest) (EditDecision, error) {
	if !Editable(runStatus) {
		return EditDecision{}, ErrRunNotEditable
	}

	breakdown := Compute(CalcInput{
		ContractType:     contractType,
		CycleType:        cycleType,
		BaseSalary:       baseSalary,
		WorkedDays:       req.WorkedDays,
		WorkedHours:      req.WorkedHours,
		Deductions:       req.Deductions,
		StoredGross:      slip.Gross,
		StoredDeductions: slip.Deductions,
	})

	decision := EditDecision{
		Breakdown:   breakdown,
		WorkedDays:  slip.WorkedDays,
		WorkedHours: slip.WorkedHours,
	}
	if days, ok := PositiveOrKeep(req.WorkedDays); ok {
		decision.WorkedDays = &days
	}
	if hours, ok := PositiveOrKeep(req.WorkedHours); ok {
		decision.WorkedHours = &hours
	}

	if req.BaseSalary != nil && *req.BaseSalary > 0 &&
		contractType == employee.ContractJournalier && cycleType == CycleDaily {
		decision.UpdateBaseSalary = true
		decision.NewBaseSalary = *req.BaseSalary
	}

	return decision, nil
}
