package payroll

import "errors"

var (
	ErrRunNotEditable    = errors.New("pay run is not in draft status")
	ErrRunNotFound       = errors.New("pay run not found")
	ErrPayslipNotFound   = errors.New("payslip not found")
	ErrInvalidTransition = errors.New("invalid pay run status transition")
)
