package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

func testDay(t *testing.T, raw string) valueobject.CalendarDay {
	t.Helper()
	day, err := valueobject.ParseCalendarDay(raw)
	if err != nil {
		t.Fatalf("ParseCalendarDay(%q) error = %v", raw, err)
	}
	return day
}

func testRange(t *testing.T, start, end string) valueobject.TimeRange {
	t.Helper()
	tr, err := valueobject.ParseTimeRange(start, end)
	if err != nil {
		t.Fatalf("ParseTimeRange(%s, %s) error = %v", start, end, err)
	}
	return tr
}

func TestNewReservationValidation(t *testing.T) {
	day := testDay(t, "2024-05-10")
	tr := testRange(t, "09:00", "10:00")

	if _, err := NewReservation("   ", day, tr); !errors.Is(err, ErrEmptyOwner) {
		t.Fatalf("expected ErrEmptyOwner, got %v", err)
	}
	if _, err := NewReservation("alice", valueobject.CalendarDay{}, tr); !errors.Is(err, ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}
	if _, err := NewReservation("alice", day, valueobject.TimeRange{}); !errors.Is(err, valueobject.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	r, err := NewReservation(" alice ", day, tr)
	if err != nil {
		t.Fatalf("NewReservation() error = %v", err)
	}
	if r.Owner() != "alice" {
		t.Fatalf("owner must be trimmed, got %q", r.Owner())
	}
	if r.ID() != "" {
		t.Fatalf("new reservation must not have an id yet, got %q", r.ID())
	}
}

func TestReservationCopies(t *testing.T) {
	day := testDay(t, "2024-05-10")
	r, err := NewReservation("alice", day, testRange(t, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("NewReservation() error = %v", err)
	}

	withID := r.WithID("abc")
	if withID.ID() != "abc" || r.ID() != "" {
		t.Fatalf("WithID must not mutate the receiver")
	}

	at := time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC)
	moved := withID.WithTimeRange(testRange(t, "11:00", "12:00"), at)
	if moved.TimeRange().Start().String() != "11:00" || withID.TimeRange().Start().String() != "09:00" {
		t.Fatalf("WithTimeRange must return a modified copy")
	}
	if !moved.UpdatedAt().Equal(at) || moved.Owner() != "alice" || !moved.Date().Equal(day) {
		t.Fatalf("unexpected copy: %+v", moved)
	}
}

func TestReservationOverlapsIsScopedToDate(t *testing.T) {
	a := Reconstruct("a", "alice", testDay(t, "2024-05-10"), testRange(t, "09:00", "10:00"), time.Time{}, time.Time{})
	b := Reconstruct("b", "bob", testDay(t, "2024-05-11"), testRange(t, "09:00", "10:00"), time.Time{}, time.Time{})
	c := Reconstruct("c", "carol", testDay(t, "2024-05-10"), testRange(t, "09:30", "11:00"), time.Time{}, time.Time{})

	if a.Overlaps(b) {
		t.Fatalf("reservations on different dates must not overlap")
	}
	if !a.Overlaps(c) {
		t.Fatalf("expected overlap on the same date")
	}
	if !a.StartsBefore(c) || !a.StartsBefore(b) || b.StartsBefore(c) {
		t.Fatalf("unexpected ordering")
	}
}
