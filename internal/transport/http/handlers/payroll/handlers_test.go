package payrollhandler

import (
	"encoding/json"
	"testing"
)

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{name: "number", raw: `12`, want: fp(12)},
		{name: "fractional number", raw: `37.5`, want: fp(37.5)},
		{name: "numeric string", raw: `"12"`, want: fp(12)},
		{name: "numeric string with spaces", raw: `" 8.5 "`, want: fp(8.5)},
		{name: "negative number kept as value", raw: `-3`, want: fp(-3)},
		{name: "absent", raw: ``, want: nil},
		{name: "null", raw: `null`, want: nil},
		{name: "non numeric string", raw: `"abc"`, want: nil},
		{name: "empty string", raw: `""`, want: nil},
		{name: "object", raw: `{}`, want: nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := flexFloat(json.RawMessage(tc.raw))
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("flexFloat(%s) = %v, want %v", tc.raw, got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("flexFloat(%s) = %v, want %v", tc.raw, *got, *tc.want)
			}
		})
	}
}

func fp(v float64) *float64 { return &v }
