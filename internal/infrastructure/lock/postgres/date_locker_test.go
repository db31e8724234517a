package postgres

import (
	"testing"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

func TestAdvisoryKeyIsUniquePerDay(t *testing.T) {
	seen := make(map[int32]string)
	start, _ := valueobject.ParseCalendarDay("2024-01-01")

	for i := 0; i < 3*366; i++ {
		day := valueobject.CalendarDayOf(start.Time().AddDate(0, 0, i))
		key := advisoryKey(day)
		if prev, ok := seen[key]; ok {
			t.Fatalf("key %d shared by %s and %s", key, prev, day)
		}
		seen[key] = day.String()
	}

	day, _ := valueobject.ParseCalendarDay("2024-05-10")
	if advisoryKey(day) != 20240510 {
		t.Fatalf("unexpected key: %d", advisoryKey(day))
	}
}
