package payment

import (
	"errors"
	"testing"

	"payflow/internal/domain/payroll"
)

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		name        string
		amount      float64
		net         float64
		alreadyPaid float64
		wantErr     error
	}{
		{"exact remaining", 100, 100, 0, nil},
		{"partial", 40, 100, 0, nil},
		{"second payment to completion", 60, 100, 40, nil},
		{"zero", 0, 100, 0, ErrNonPositiveAmount},
		{"negative", -5, 100, 0, ErrNonPositiveAmount},
		{"over net", 150, 100, 0, ErrOverpayment},
		{"over remaining", 70, 100, 40, ErrOverpayment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAmount(tc.amount, tc.net, tc.alreadyPaid)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestStatusAfterPayment(t *testing.T) {
	cases := []struct {
		name      string
		totalPaid float64
		net       float64
		want      string
	}{
		{"fully paid", 100, 100, payroll.PayslipStatusPaid},
		{"overshoot treated as paid", 120, 100, payroll.PayslipStatusPaid},
		{"partial", 40, 100, payroll.PayslipStatusPartial},
		{"nothing paid", 0, 100, payroll.PayslipStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusAfterPayment(tc.totalPaid, tc.net); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidMethod(t *testing.T) {
	for _, method := range KnownMethods {
		if !ValidMethod(method) {
			t.Fatalf("%q should be valid", method)
		}
	}
	if ValidMethod("crypto") {
		t.Fatal("unknown method accepted")
	}
}
