package redis

import (
	"testing"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

func TestReservationCacheDayKey(t *testing.T) {
	day, err := valueobject.ParseCalendarDay("2024-05-10")
	if err != nil {
		t.Fatalf("ParseCalendarDay() error = %v", err)
	}

	c := NewReservationCache(nil, 0, "calendar:")
	if got := c.dayKey(day); got != "calendar:reservations:date:2024-05-10" {
		t.Fatalf("unexpected key: %s", got)
	}

	bare := NewReservationCache(nil, 0, "")
	if got := bare.dayKey(day); got != "reservations:date:2024-05-10" {
		t.Fatalf("unexpected key without prefix: %s", got)
	}
}
