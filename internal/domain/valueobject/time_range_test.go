package valueobject

import (
	"errors"
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end string) TimeRange {
	t.Helper()
	tr, err := ParseTimeRange(start, end)
	if err != nil {
		t.Fatalf("ParseTimeRange(%s, %s) error = %v", start, end, err)
	}
	return tr
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "09:00", want: "09:00"},
		{raw: "17:30", want: "17:30"},
		{raw: "07:05:00", want: "07:05"},
		{raw: "24:00", want: "24:00"},
		{raw: "00:00", want: "00:00"},
		{raw: "9:00", wantErr: true},
		{raw: "24:01", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "12:30:15", wantErr: true},
		{raw: "noon", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "-1:00", wantErr: true},
		{raw: "+9:+0", wantErr: true},
		{raw: "09:+0", wantErr: true},
		{raw: "-0:30", wantErr: true},
		{raw: " 9:00", wantErr: true},
		{raw: "09:00:+0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseClockTime(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidClockTime) {
					t.Fatalf("ParseClockTime(%q) error = %v, want ErrInvalidClockTime", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClockTime(%q) error = %v", tt.raw, err)
			}
			if got.String() != tt.want {
				t.Fatalf("ParseClockTime(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseCalendarDay(t *testing.T) {
	day, err := ParseCalendarDay("2024-02-29")
	if err != nil {
		t.Fatalf("ParseCalendarDay() error = %v", err)
	}
	if day.String() != "2024-02-29" {
		t.Fatalf("unexpected day: %s", day)
	}

	for _, raw := range []string{"2023-02-29", "2024-13-01", "24-01-01", "2024/01/01", ""} {
		if _, err := ParseCalendarDay(raw); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseCalendarDay(%q) error = %v, want ErrInvalidDate", raw, err)
		}
	}

	other, _ := ParseCalendarDay("2024-03-01")
	if !day.Before(other) || other.Before(day) {
		t.Fatalf("unexpected ordering between %s and %s", day, other)
	}
	if !day.Equal(CalendarDayOf(time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC))) {
		t.Fatalf("CalendarDayOf must drop the time of day")
	}
}

func TestNewTimeRangeValidation(t *testing.T) {
	if _, err := ParseTimeRange("10:00", "10:00"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("zero-length range must be invalid, got %v", err)
	}
	if _, err := ParseTimeRange("11:00", "10:00"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("inverted range must be invalid, got %v", err)
	}
	if _, err := ParseTimeRange("xx", "10:00"); !errors.Is(err, ErrInvalidClockTime) {
		t.Fatalf("malformed start must fail with ErrInvalidClockTime, got %v", err)
	}

	tr := mustRange(t, "09:00", "10:30")
	if tr.Duration() != 90*time.Minute {
		t.Fatalf("unexpected duration: %s", tr.Duration())
	}
	if tr.String() != "[09:00, 10:30)" {
		t.Fatalf("unexpected string: %s", tr)
	}
	if (TimeRange{}).Validate() == nil {
		t.Fatalf("zero value range must not validate")
	}
}

func TestTimeRangeOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b [2]string
		want bool
	}{
		{"touching end to start", [2]string{"09:00", "10:00"}, [2]string{"10:00", "11:00"}, false},
		{"touching start to end", [2]string{"10:00", "11:00"}, [2]string{"09:00", "10:00"}, false},
		{"identical", [2]string{"09:00", "10:00"}, [2]string{"09:00", "10:00"}, true},
		{"partial right", [2]string{"09:00", "11:00"}, [2]string{"10:00", "12:00"}, true},
		{"partial left", [2]string{"09:00", "11:00"}, [2]string{"08:00", "09:30"}, true},
		{"contained", [2]string{"09:00", "17:00"}, [2]string{"10:00", "11:00"}, true},
		{"containing", [2]string{"09:00", "17:00"}, [2]string{"08:00", "18:00"}, true},
		{"disjoint", [2]string{"09:00", "10:00"}, [2]string{"13:00", "14:00"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustRange(t, tt.a[0], tt.a[1])
			b := mustRange(t, tt.b[0], tt.b[1])
			if got := a.Overlaps(b); got != tt.want {
				t.Fatalf("%s.Overlaps(%s) = %v, want %v", a, b, got, tt.want)
			}
			if got := b.Overlaps(a); got != tt.want {
				t.Fatalf("overlap must be symmetric: %s.Overlaps(%s) = %v", b, a, got)
			}
		})
	}
}

func TestTimeRangeContains(t *testing.T) {
	tr := mustRange(t, "09:00", "10:00")
	if !tr.Contains(MustClockTime(9, 0)) {
		t.Fatalf("start must be contained")
	}
	if tr.Contains(MustClockTime(10, 0)) {
		t.Fatalf("end must not be contained")
	}
}
