package port

import (
	"context"
	"time"
)

// Operation names a scheduling operation for metrics and events.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Outcome is the result class of a scheduling operation.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeInvalid        Outcome = "invalid"
	OutcomeOutOfHours     Outcome = "out_of_hours"
	OutcomeOverlap        Outcome = "overlap"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeInfrastructure Outcome = "infrastructure_error"
)

// OperationRecord describes one finished scheduling operation.
type OperationRecord struct {
	Operation Operation
	Outcome   Outcome
	Duration  time.Duration
	LockWait  time.Duration
	Timestamp time.Time
}

// MetricsPublisher defines the interface for publishing booking metrics to external observability platforms.
// This port allows the application layer to publish metrics without coupling to specific implementations.
type MetricsPublisher interface {
	// RecordOperation records the outcome of a single operation.
	// Implementations must not block the caller on network I/O.
	RecordOperation(ctx context.Context, record OperationRecord)

	// Flush forces immediate publication of any buffered metrics.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
