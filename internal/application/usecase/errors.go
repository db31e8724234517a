package usecase

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrOverlap возвращается, если интервал пересекается с существующим бронированием
	ErrOverlap = errors.New("time overlap")

	// ErrNotFound возвращается при обновлении отсутствующего бронирования
	ErrNotFound = errors.New("reservation not found")

	// ErrInfrastructure - общий признак отказа хранилища, блокировки или кеша
	ErrInfrastructure = errors.New("infrastructure failure")
)

// InfrastructureError оборачивает отказ внешнего компонента
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать через errors.Is(err, ErrInfrastructure)
func (e *InfrastructureError) Is(target error) bool {
	return target == ErrInfrastructure
}

// wrapInfra оставляет отмену контекста как есть, остальное помечает как отказ инфраструктуры
func wrapInfra(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &InfrastructureError{Op: op, Err: err}
}

// IsCancellation сообщает, что операция прервана отменой или таймаутом вызывающего
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
