package observability

import (
	"context"
	"errors"

	"github.com/Pottifar/calendar/internal/application/port"
)

// Fanout forwards operation records to several publishers.
type Fanout []port.MetricsPublisher

// NewFanout drops nil publishers; it returns nil when nothing is left.
func NewFanout(publishers ...port.MetricsPublisher) port.MetricsPublisher {
	out := make(Fanout, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}

	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}

func (f Fanout) RecordOperation(ctx context.Context, record port.OperationRecord) {
	for _, p := range f {
		p.RecordOperation(ctx, record)
	}
}

// Flush flushes every publisher and joins their errors.
func (f Fanout) Flush(ctx context.Context) error {
	var errs []error
	for _, p := range f {
		if err := p.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
