package port

import (
	"context"

	"github.com/Pottifar/calendar/internal/application/dto"
)

// EventPublisher delivers committed reservation changes to a message broker.
// Publishing happens after the store write, so a failure here never undoes it.
type EventPublisher interface {
	// Publish sends event on subject, e.g. calendar.reservations.created.
	Publish(ctx context.Context, subject string, event *dto.ReservationEventDTO) error

	// Close drains pending publishes and closes the connection.
	Close() error
}
