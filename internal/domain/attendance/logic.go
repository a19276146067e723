package attendance

import (
	"math"
	"unicode"
)

// ExpectedPIN derives an employee's check-in PIN from the first four
// digits of their phone number, skipping any formatting characters.
// Employees without four phone digits get the fixed fallback "0000".
func ExpectedPIN(phone string) string {
	digits := make([]rune, 0, 4)
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
			if len(digits) == 4 {
				return string(digits)
			}
		}
	}
	return "0000"
}

func VerifyPIN(phone, pin string) bool {
	return pin != "" && pin == ExpectedPIN(phone)
}

const earthRadiusMeters = 6371000

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Geofence is a circle around the company site. A fence with no radius
// accepts every position.
type Geofence struct {
	Latitude  float64
	Longitude float64
	RadiusM   float64
}

func (g Geofence) Contains(lat, lng float64) bool {
	if g.RadiusM <= 0 {
		return true
	}
	return HaversineMeters(g.Latitude, g.Longitude, lat, lng) <= g.RadiusM
}

// CheckInState is what the eligibility decision reads about an employee
// right now.
type CheckInState struct {
	Active         bool
	CheckedInToday bool
	Fence          *Geofence
	Latitude       *float64
	Longitude      *float64
}

// CanCheckIn decides whether a check-in may proceed. Position checks
// only apply when the company has a geofence and the caller sent
// coordinates; a PIN kiosk inside the building sends none.
func CanCheckIn(state CheckInState) error {
	if !state.Active {
		return ErrInactiveEmployee
	}
	if state.CheckedInToday {
		return ErrAlreadyCheckedIn
	}
	if state.Fence != nil && state.Latitude != nil && state.Longitude != nil {
		if !state.Fence.Contains(*state.Latitude, *state.Longitude) {
			return ErrOutsideGeofence
		}
	}
	return nil
}
