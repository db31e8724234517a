package valueobject

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate возвращается при разборе некорректной даты
var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

// CalendarDay представляет календарный день без времени и часового пояса (Value Object)
type CalendarDay struct {
	year  int
	month time.Month
	day   int
}

// NewCalendarDay создает CalendarDay с проверкой существования даты
func NewCalendarDay(year int, month time.Month, day int) (CalendarDay, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return CalendarDay{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return CalendarDay{year: year, month: month, day: day}, nil
}

// ParseCalendarDay разбирает дату в формате YYYY-MM-DD
func ParseCalendarDay(raw string) (CalendarDay, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return CalendarDay{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return CalendarDayOf(t), nil
}

// CalendarDayOf возвращает день, которому принадлежит момент времени t в его часовом поясе
func CalendarDayOf(t time.Time) CalendarDay {
	return CalendarDay{year: t.Year(), month: t.Month(), day: t.Day()}
}

func (d CalendarDay) Year() int {
	return d.year
}

func (d CalendarDay) Month() time.Month {
	return d.month
}

func (d CalendarDay) Day() int {
	return d.day
}

// IsZero сообщает, что день не был задан
func (d CalendarDay) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// Time возвращает полночь этого дня в UTC
func (d CalendarDay) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDay) Before(other CalendarDay) bool {
	return d.Time().Before(other.Time())
}

func (d CalendarDay) Equal(other CalendarDay) bool {
	return d == other
}

// String возвращает дату в формате YYYY-MM-DD
func (d CalendarDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}
