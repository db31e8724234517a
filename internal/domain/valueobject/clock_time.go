package valueobject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidClockTime возвращается при разборе некорректного времени суток
var ErrInvalidClockTime = errors.New("invalid clock time")

// ClockTime представляет время суток с точностью до минуты (Value Object)
// Хранится как количество минут от полуночи, 24:00 допустимо как конец дня
type ClockTime struct {
	minutes int
}

// NewClockTime создает ClockTime из часов и минут
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return ClockTime{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidClockTime, hour, minute)
	}
	return ClockTime{minutes: hour*60 + minute}, nil
}

// MustClockTime используется для констант и тестов
func MustClockTime(hour, minute int) ClockTime {
	ct, err := NewClockTime(hour, minute)
	if err != nil {
		panic(err)
	}
	return ct
}

// ParseClockTime разбирает "HH:MM" или "HH:MM:SS" (секунды должны быть нулевыми)
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		if len(part) != 2 || !isDigit(part[0]) || !isDigit(part[1]) {
			return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
		}
		values[i] = v
	}

	if len(values) == 3 && values[2] != 0 {
		return ClockTime{}, fmt.Errorf("%w: seconds are not supported: %q", ErrInvalidClockTime, raw)
	}

	return NewClockTime(values[0], values[1])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Minutes возвращает количество минут от полуночи
func (c ClockTime) Minutes() int {
	return c.minutes
}

func (c ClockTime) Hour() int {
	return c.minutes / 60
}

func (c ClockTime) Minute() int {
	return c.minutes % 60
}

func (c ClockTime) Before(other ClockTime) bool {
	return c.minutes < other.minutes
}

func (c ClockTime) After(other ClockTime) bool {
	return c.minutes > other.minutes
}

// String возвращает время в формате HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// StringWithSeconds возвращает время в формате HH:MM:SS (формат колонок TIME)
func (c ClockTime) StringWithSeconds() string {
	return c.String() + ":00"
}
