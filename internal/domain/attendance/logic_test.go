package attendance

import (
	"errors"
	"testing"
)

func TestExpectedPIN(t *testing.T) {
	cases := []struct {
		phone string
		want  string
	}{
		{"771234567", "7712"},
		{"+221 77 123 45 67", "2217"},
		{"77-12", "7712"},
		{"771", "0000"},
		{"", "0000"},
		{"abc", "0000"},
	}
	for _, tc := range cases {
		if got := ExpectedPIN(tc.phone); got != tc.want {
			t.Fatalf("ExpectedPIN(%q) = %q, want %q", tc.phone, got, tc.want)
		}
	}
}

func TestVerifyPIN(t *testing.T) {
	if !VerifyPIN("771234567", "7712") {
		t.Fatal("matching pin rejected")
	}
	if VerifyPIN("771234567", "0000") {
		t.Fatal("wrong pin accepted")
	}
	if VerifyPIN("abc", "") {
		t.Fatal("empty pin must never match")
	}
}

func TestHaversineMeters(t *testing.T) {
	// Two points in Dakar roughly 7 km apart.
	d := HaversineMeters(14.6937, -17.4441, 14.7397, -17.4902)
	if d < 6000 || d > 8000 {
		t.Fatalf("distance %v out of expected range", d)
	}
	if HaversineMeters(10, 10, 10, 10) != 0 {
		t.Fatal("distance to self must be zero")
	}
}

func TestGeofenceContains(t *testing.T) {
	fence := Geofence{Latitude: 14.6937, Longitude: -17.4441, RadiusM: 200}
	if !fence.Contains(14.6937, -17.4441) {
		t.Fatal("center must be inside")
	}
	if fence.Contains(14.7397, -17.4902) {
		t.Fatal("point kilometers away must be outside")
	}
	open := Geofence{Latitude: 0, Longitude: 0, RadiusM: 0}
	if !open.Contains(89, 179) {
		t.Fatal("fence without radius must accept everything")
	}
}

func TestCanCheckIn(t *testing.T) {
	lat, lng := 14.6937, -17.4441
	far := 14.9
	fence := &Geofence{Latitude: 14.6937, Longitude: -17.4441, RadiusM: 200}

	cases := []struct {
		name  string
		state CheckInState
		want  error
	}{
		{"ok without fence", CheckInState{Active: true}, nil},
		{"inactive", CheckInState{Active: false}, ErrInactiveEmployee},
		{"already in", CheckInState{Active: true, CheckedInToday: true}, ErrAlreadyCheckedIn},
		{"inside fence", CheckInState{Active: true, Fence: fence, Latitude: &lat, Longitude: &lng}, nil},
		{"outside fence", CheckInState{Active: true, Fence: fence, Latitude: &far, Longitude: &lng}, ErrOutsideGeofence},
		{"fence but no position", CheckInState{Active: true, Fence: fence}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := CanCheckIn(tc.state); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}
