package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/Pottifar/calendar/internal/application/port"
)

type countingPublisher struct {
	records  int
	flushErr error
}

func (c *countingPublisher) RecordOperation(context.Context, port.OperationRecord) { c.records++ }
func (c *countingPublisher) Flush(context.Context) error                           { return c.flushErr }

func TestNewFanout(t *testing.T) {
	if NewFanout(nil, nil) != nil {
		t.Fatalf("expected nil publisher when all inputs are nil")
	}

	single := &countingPublisher{}
	if got := NewFanout(nil, single); got != port.MetricsPublisher(single) {
		t.Fatalf("single publisher must be returned unwrapped")
	}
}

func TestFanoutForwardsAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &countingPublisher{}
	b := &countingPublisher{flushErr: boom}

	fan := NewFanout(a, b)
	fan.RecordOperation(context.Background(), port.OperationRecord{Operation: port.OperationCreate})

	if a.records != 1 || b.records != 1 {
		t.Fatalf("expected both publishers to receive the record, got %d and %d", a.records, b.records)
	}
	if err := fan.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected joined flush error, got %v", err)
	}
}
