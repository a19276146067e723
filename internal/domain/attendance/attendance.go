package attendance

import (
	"errors"
	"time"
)

const (
	MethodPIN = "pin"
	MethodQR  = "qr"
	MethodGPS = "gps"
)

const (
	TypeIn  = "in"
	TypeOut = "out"
)

var KnownMethods = []string{MethodPIN, MethodQR, MethodGPS}

func ValidMethod(method string) bool {
	for _, known := range KnownMethods {
		if method == known {
			return true
		}
	}
	return false
}

var (
	ErrInvalidPIN       = errors.New("pin does not match")
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrInactiveEmployee = errors.New("employee is not active")
	ErrOutsideGeofence  = errors.New("outside the company geofence")
)

type Record struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	CompanyID  string    `json:"companyId"`
	Type       string    `json:"type"`
	Method     string    `json:"method"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}
