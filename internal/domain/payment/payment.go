package payment

import (
	"errors"
	"time"

	"payflow/internal/domain/payroll"
)

const (
	MethodCash         = "cash"
	MethodBankTransfer = "bank_transfer"
	MethodCheck        = "check"
	MethodMobileMoney  = "mobile_money"
)

var KnownMethods = []string{MethodCash, MethodBankTransfer, MethodCheck, MethodMobileMoney}

func ValidMethod(method string) bool {
	for _, known := range KnownMethods {
		if method == known {
			return true
		}
	}
	return false
}

var (
	ErrNonPositiveAmount = errors.New("payment amount must be positive")
	ErrOverpayment       = errors.New("payment exceeds remaining balance")
)

type Payment struct {
	ID        string    `json:"id"`
	PayslipID string    `json:"payslipId"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidateAmount checks a new payment against the payslip's net and the
// total already paid. Amounts must be positive and never push the total
// past the net.
func ValidateAmount(amount, net, alreadyPaid float64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if amount > net-alreadyPaid {
		return ErrOverpayment
	}
	return nil
}

// StatusAfterPayment returns the payslip status once totalPaid includes
// the new payment.
func StatusAfterPayment(totalPaid, net float64) string {
	if totalPaid >= net {
		return payroll.PayslipStatusPaid
	}
	if totalPaid > 0 {
		return payroll.PayslipStatusPartial
	}
	return payroll.PayslipStatusPending
}
