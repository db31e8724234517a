package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/pkg/logger"
)

// NATSPublisher implements port.EventPublisher on NATS JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewNATSPublisher creates a new NATS publisher.
// When streamName is set, a stream covering subjectPrefix.> is created if missing.
func NewNATSPublisher(natsURL, streamName, subjectPrefix string, log *logger.Logger) (*NATSPublisher, error) {
	// Connect to NATS with retry
	nc, err := nats.Connect(natsURL,
		nats.Name("calendar-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Get JetStream context
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	if streamName != "" {
		if err := ensureStream(js, streamName, subjectPrefix); err != nil {
			nc.Close()
			return nil, err
		}
	}

	log.Info("Connected to NATS", "url", natsURL, "stream", streamName)

	return &NATSPublisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

func ensureStream(js nats.JetStreamContext, name, subjectPrefix string) error {
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{subjectPrefix + ".>"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create JetStream stream %s: %w", name, err)
	}
	return nil
}

// Publish sends the event to JetStream without waiting for the ack.
// The message id lets the stream drop duplicates of a retried publish.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event *dto.ReservationEventDTO) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.js.PublishAsync(subject, data, nats.MsgId(messageID(event)))
	if err != nil {
		p.logger.Error("Failed to publish event", err,
			"subject", subject,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published",
		"subject", subject,
		"size", len(data),
	)

	return nil
}

// messageID is stable for one change: type, reservation and commit time.
func messageID(event *dto.ReservationEventDTO) string {
	return event.Type + ":" + event.ReservationID + ":" + strconv.FormatInt(event.Timestamp.UnixNano(), 10)
}

// Close waits briefly for pending async publishes and closes the connection
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}

	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(5 * time.Second):
		p.logger.Warn("Timed out waiting for pending NATS publishes")
	}

	p.logger.Info("Closing NATS connection")
	p.nc.Close()
	return nil
}
