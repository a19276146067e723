package shared

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	if parsed, err := ParseDate("2026-08-01"); err != nil || parsed.Format("2006-01-02") != "2026-08-01" {
		t.Fatalf("plain date: %v %v", parsed, err)
	}
	if parsed, err := ParseDate("2026-08-01T10:30:00Z"); err != nil || parsed.Hour() != 10 {
		t.Fatalf("rfc3339: %v %v", parsed, err)
	}
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Fatal("expected parse error")
	}
	if parsed, err := ParseDate(""); err != nil || !parsed.IsZero() {
		t.Fatalf("empty input must yield zero time, got %v %v", parsed, err)
	}
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2026, 8, 29, 15, 42, 7, 0, time.UTC)
	start, end := DayBounds(at)
	if start.Hour() != 0 || start.Day() != 29 {
		t.Fatalf("unexpected start: %v", start)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("bounds must span one day, got %v", end.Sub(start))
	}
	if at.Before(start) || !at.Before(end) {
		t.Fatal("timestamp must fall inside its own day bounds")
	}
}
