package service

import (
	"errors"
	"fmt"

	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// ErrOutOfHours возвращается, если интервал выходит за часы работы
var ErrOutOfHours = errors.New("time range is outside of business hours")

// OutOfHoursKind описывает, с какой стороны нарушены часы работы
type OutOfHoursKind string

const (
	TooEarly OutOfHoursKind = "too_early"
	TooLate  OutOfHoursKind = "too_late"
)

// OutOfHoursError содержит причину нарушения часов работы
type OutOfHoursError struct {
	Kind      OutOfHoursKind
	Range     valueobject.TimeRange
	OpenTime  valueobject.ClockTime
	CloseTime valueobject.ClockTime
}

func (e *OutOfHoursError) Error() string {
	return fmt.Sprintf("%s: %s is %s for hours %s-%s",
		ErrOutOfHours.Error(), e.Range, e.Kind, e.OpenTime, e.CloseTime)
}

// Is позволяет сравнивать через errors.Is(err, ErrOutOfHours)
func (e *OutOfHoursError) Is(target error) bool {
	return target == ErrOutOfHours
}

// BusinessHoursPolicy проверяет интервалы на соответствие часам работы (Domain Service)
// openTime - самый ранний момент для бронирования, closeTime - самый поздний
type BusinessHoursPolicy struct {
	openTime  valueobject.ClockTime
	closeTime valueobject.ClockTime
}

// NewBusinessHoursPolicy создает политику с заданными часами работы
func NewBusinessHoursPolicy(openTime, closeTime valueobject.ClockTime) (*BusinessHoursPolicy, error) {
	if !openTime.Before(closeTime) {
		return nil, fmt.Errorf("open time %s must be before close time %s", openTime, closeTime)
	}

	return &BusinessHoursPolicy{
		openTime:  openTime,
		closeTime: closeTime,
	}, nil
}

// DefaultBusinessHoursPolicy возвращает политику 07:00-17:00
func DefaultBusinessHoursPolicy() *BusinessHoursPolicy {
	return &BusinessHoursPolicy{
		openTime:  valueobject.MustClockTime(7, 0),
		closeTime: valueobject.MustClockTime(17, 0),
	}
}

func (p *BusinessHoursPolicy) OpenTime() valueobject.ClockTime {
	return p.openTime
}

func (p *BusinessHoursPolicy) CloseTime() valueobject.ClockTime {
	return p.closeTime
}

// Check проверяет интервал против часов работы политики
func (p *BusinessHoursPolicy) Check(tr valueobject.TimeRange) error {
	return CheckWithinHours(tr, p.openTime, p.closeTime)
}

// CheckWithinHours возвращает первое найденное нарушение:
// сначала TooEarly, затем TooLate, начало проверяется раньше конца.
// Конец ровно в closeTime допустим, начало в closeTime - нет.
func CheckWithinHours(tr valueobject.TimeRange, openTime, closeTime valueobject.ClockTime) error {
	if err := tr.Validate(); err != nil {
		return err
	}

	violation := func(kind OutOfHoursKind) error {
		return &OutOfHoursError{Kind: kind, Range: tr, OpenTime: openTime, CloseTime: closeTime}
	}

	if tr.Start().Before(openTime) || tr.End().Before(openTime) {
		return violation(TooEarly)
	}

	if !tr.Start().Before(closeTime) || tr.End().After(closeTime) {
		return violation(TooLate)
	}

	return nil
}
