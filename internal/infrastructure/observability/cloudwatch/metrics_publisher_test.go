package cloudwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/Pottifar/calendar/internal/application/port"
	"github.com/Pottifar/calendar/pkg/logger"
)

type fakeCloudWatch struct {
	mu       sync.Mutex
	inputs   []*cloudwatch.PutMetricDataInput
	failures int
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("throttled")
	}
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (f *fakeCloudWatch) datumCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, in := range f.inputs {
		n += len(in.MetricData)
	}
	return n
}

func TestMapUnit(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected string
	}{
		{"percentage", "%", "Percent"},
		{"milliseconds", "ms", "Milliseconds"},
		{"seconds", "s", "Seconds"},
		{"count", "count", "Count"},
		{"unknown", "custom", "None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mapUnit(tt.unit)
			if string(result) != tt.expected {
				t.Errorf("mapUnit(%q) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestConvertToData(t *testing.T) {
	p := &MetricsPublisher{
		namespace: "Test/Namespace",
		defaultDimensions: map[string]string{
			"Environment": "test",
		},
		storageResolution: 60,
	}

	data := p.convertToData(port.OperationRecord{
		Operation: port.OperationCreate,
		Outcome:   port.OutcomeOverlap,
		Duration:  1500 * time.Microsecond,
		LockWait:  2 * time.Millisecond,
		Timestamp: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	})

	if len(data) != 3 {
		t.Fatalf("expected 3 datums for create, got %d", len(data))
	}

	count, latency, wait := data[0], data[1], data[2]
	if *count.MetricName != metricOperationCount || *count.Value != 1 || count.Unit != "Count" {
		t.Errorf("unexpected count datum: %+v", count)
	}
	if *latency.MetricName != metricOperationLatency || *latency.Value != 1.5 || latency.Unit != "Milliseconds" {
		t.Errorf("unexpected latency datum: %+v", latency)
	}
	if *wait.MetricName != metricLockWait || *wait.Value != 2 {
		t.Errorf("unexpected lock wait datum: %+v", wait)
	}
	if count.StorageResolution == nil || *count.StorageResolution != 60 {
		t.Errorf("Expected StorageResolution=60, got %v", count.StorageResolution)
	}

	expectedDimensions := map[string]string{
		"Environment": "test",
		"Operation":   "create",
		"Outcome":     "overlap",
	}
	if len(count.Dimensions) != len(expectedDimensions) {
		t.Fatalf("Expected %d dimensions, got %d", len(expectedDimensions), len(count.Dimensions))
	}
	for _, dim := range count.Dimensions {
		if expectedDimensions[*dim.Name] != *dim.Value {
			t.Errorf("Dimension %s: expected %s, got %s", *dim.Name, expectedDimensions[*dim.Name], *dim.Value)
		}
	}

	deleteData := p.convertToData(port.OperationRecord{Operation: port.OperationDelete, Outcome: port.OutcomeSuccess})
	if len(deleteData) != 2 {
		t.Fatalf("delete takes no lock and must not report lock wait, got %d datums", len(deleteData))
	}
}

func TestFlushPublishesBufferedRecords(t *testing.T) {
	client := &fakeCloudWatch{failures: 1}
	p := newMetricsPublisher(client, MetricsPublisherConfig{
		Namespace:     "Test/Namespace",
		BufferSize:    100,
		FlushInterval: time.Hour,
	}, logger.New("error"))

	for i := 0; i < 5; i++ {
		p.RecordOperation(context.Background(), port.OperationRecord{
			Operation: port.OperationUpdate,
			Outcome:   port.OutcomeSuccess,
		})
	}

	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := client.datumCount(); got != 15 {
		t.Fatalf("expected 15 datums after retry, got %d", got)
	}
	if *client.inputs[0].Namespace != "Test/Namespace" {
		t.Fatalf("unexpected namespace: %s", *client.inputs[0].Namespace)
	}
}

func TestFullBufferTriggersBackgroundFlush(t *testing.T) {
	client := &fakeCloudWatch{}
	p := newMetricsPublisher(client, MetricsPublisherConfig{
		Namespace:     "Test/Namespace",
		BufferSize:    2,
		FlushInterval: time.Hour,
	}, logger.New("error"))
	defer p.Close(context.Background())

	p.RecordOperation(context.Background(), port.OperationRecord{Operation: port.OperationDelete})
	p.RecordOperation(context.Background(), port.OperationRecord{Operation: port.OperationDelete})

	deadline := time.Now().Add(time.Second)
	for client.datumCount() != 4 {
		if time.Now().After(deadline) {
			t.Fatalf("expected background flush of 4 datums, got %d", client.datumCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
