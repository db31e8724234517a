package valueobject

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange возвращается, если начало диапазона не раньше его конца
var ErrInvalidRange = errors.New("invalid time range: start must be before end")

// TimeRange представляет полуоткрытый интервал [start, end) внутри одного дня (Value Object)
// Иммутабельный объект
type TimeRange struct {
	start ClockTime
	end   ClockTime
}

// NewTimeRange создает TimeRange с валидацией
func NewTimeRange(start, end ClockTime) (TimeRange, error) {
	tr := TimeRange{start: start, end: end}
	if err := tr.Validate(); err != nil {
		return TimeRange{}, err
	}
	return tr, nil
}

// ParseTimeRange создает TimeRange из строк HH:MM
func ParseTimeRange(start, end string) (TimeRange, error) {
	startTime, err := ParseClockTime(start)
	if err != nil {
		return TimeRange{}, err
	}

	endTime, err := ParseClockTime(end)
	if err != nil {
		return TimeRange{}, err
	}

	return NewTimeRange(startTime, endTime)
}

// Validate проверяет, что start < end; нулевые и перевернутые диапазоны недопустимы
func (tr TimeRange) Validate() error {
	if !tr.start.Before(tr.end) {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidRange, tr.start, tr.end)
	}
	return nil
}

// Start возвращает начальное время
func (tr TimeRange) Start() ClockTime {
	return tr.start
}

// End возвращает конечное время
func (tr TimeRange) End() ClockTime {
	return tr.end
}

// Duration возвращает длительность диапазона
func (tr TimeRange) Duration() time.Duration {
	return time.Duration(tr.end.Minutes()-tr.start.Minutes()) * time.Minute
}

// Contains проверяет, попадает ли момент в [start, end)
func (tr TimeRange) Contains(t ClockTime) bool {
	return !t.Before(tr.start) && t.Before(tr.end)
}

// Overlaps проверяет пересечение полуоткрытых интервалов
// Касание концами (A.end == B.start) пересечением не является
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.start.Before(other.end) && other.start.Before(tr.end)
}

func (tr TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", tr.start, tr.end)
}
