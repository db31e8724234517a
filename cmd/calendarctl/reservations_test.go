package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Pottifar/calendar/internal/application/usecase"
	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

func testReservation(t *testing.T) *entity.Reservation {
	t.Helper()
	day, err := valueobject.ParseCalendarDay("2024-05-10")
	if err != nil {
		t.Fatalf("ParseCalendarDay() error = %v", err)
	}
	tr, err := valueobject.ParseTimeRange("09:00", "10:30")
	if err != nil {
		t.Fatalf("ParseTimeRange() error = %v", err)
	}
	return entity.Reconstruct("r-1", "alice", day, tr, time.Time{}, time.Time{})
}

func TestPrintReservationsTable(t *testing.T) {
	jsonOutput = false
	var buf bytes.Buffer

	if err := printReservations(&buf, []*entity.Reservation{testReservation(t)}); err != nil {
		t.Fatalf("printReservations() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", buf.String())
	}
	if fields := strings.Fields(lines[1]); strings.Join(fields, " ") != "r-1 alice 2024-05-10 09:00 10:30" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestPrintReservationsJSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()
	var buf bytes.Buffer

	if err := printReservations(&buf, []*entity.Reservation{testReservation(t)}); err != nil {
		t.Fatalf("printReservations() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"owner": "alice"`) {
		t.Fatalf("expected JSON output, got %s", buf.String())
	}
}

func TestDescribeKeepsErrorIdentity(t *testing.T) {
	for _, target := range []error{usecase.ErrOverlap, usecase.ErrNotFound} {
		if err := describe(target); !errors.Is(err, target) {
			t.Fatalf("describe(%v) lost the original error: %v", target, err)
		}
	}

	other := errors.New("boom")
	if describe(other) != other {
		t.Fatalf("unrelated errors must pass through unchanged")
	}
}
