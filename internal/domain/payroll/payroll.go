package payroll

import "time"

const (
	CycleMonthly = "monthly"
	CycleWeekly  = "weekly"
	CycleDaily   = "daily"
)

// Pay run statuses move one way: draft, then approved, then closed.
const (
	RunStatusDraft    = "draft"
	RunStatusApproved = "approved"
	RunStatusClosed   = "closed"
)

const (
	PayslipStatusPending   = "pending"
	PayslipStatusValidated = "validated"
	PayslipStatusPartial   = "partial"
	PayslipStatusPaid      = "paid"
)

var KnownCycleTypes = []string{CycleMonthly, CycleWeekly, CycleDaily}

func ValidCycleType(cycleType string) bool {
	for _, known := range KnownCycleTypes {
		if cycleType == known {
			return true
		}
	}
	return false
}

// ValidRunTransition reports whether a pay run may move from one status
// to another. The machine is monotonic; no transition reopens a run.
func ValidRunTransition(from, to string) bool {
	switch from {
	case RunStatusDraft:
		return to == RunStatusApproved
	case RunStatusApproved:
		return to == RunStatusClosed
	default:
		return false
	}
}

// Editable reports whether payslips under a run may still change.
func Editable(runStatus string) bool {
	return runStatus == RunStatusDraft
}

type PayRun struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"`
	CycleType   string    `json:"cycleType"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Payslip struct {
	ID          string    `json:"id"`
	PayRunID    string    `json:"payRunId"`
	EmployeeID  string    `json:"employeeId"`
	Gross       float64   `json:"gross"`
	Deductions  float64   `json:"deductions"`
	Net         float64   `json:"net"`
	WorkedDays  *float64  `json:"workedDays,omitempty"`
	WorkedHours *float64  `json:"workedHours,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
