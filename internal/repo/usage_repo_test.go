package repo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mktware/go-assist-backend/internal/domain"
)

func TestPeriodStart(t *testing.T) {
	in := time.Date(2026, time.August, 31, 23, 59, 58, 0, time.FixedZone("CEST", 2*3600))
	got := PeriodStart(in)
	// 2026-08-31 23:59:58 +02:00 is 21:59:58 UTC, still August.
	want := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("PeriodStart = %v, want %v", got, want)
	}

	// A local time past midnight can land in the next UTC month's bucket.
	in = time.Date(2026, time.September, 1, 1, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	want = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	if got := PeriodStart(in); !got.Equal(want) {
		t.Fatalf("PeriodStart = %v, want %v", got, want)
	}
}

func TestAddUsage_CreatesThenAccumulates(t *testing.T) {
	db := newRepoDB(t, &domain.UsagePeriod{})
	ctx := context.Background()
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

	if err := AddUsage(ctx, db, "u1", 100, 0.001, now); err != nil {
		t.Fatalf("first AddUsage: %v", err)
	}
	if err := AddUsage(ctx, db, "u1", 50, 0.0005, now.Add(time.Hour)); err != nil {
		t.Fatalf("second AddUsage: %v", err)
	}

	row, err := GetUsage(ctx, db, "u1", PeriodStart(now))
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if row.RequestCount != 2 || row.TokenCount != 150 {
		t.Fatalf("unexpected counters: %+v", row)
	}
	if math.Abs(row.CostEstimate-0.0015) > 1e-9 {
		t.Fatalf("cost = %v, want 0.0015", row.CostEstimate)
	}
}

func TestAddUsage_NewMonthNewRow(t *testing.T) {
	db := newRepoDB(t, &domain.UsagePeriod{})
	ctx := context.Background()

	aug := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	sep := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	if err := AddUsage(ctx, db, "u1", 10, 0.1, aug); err != nil {
		t.Fatalf("AddUsage aug: %v", err)
	}
	if err := AddUsage(ctx, db, "u1", 20, 0.2, sep); err != nil {
		t.Fatalf("AddUsage sep: %v", err)
	}

	augRow, err := GetUsage(ctx, db, "u1", PeriodStart(aug))
	if err != nil {
		t.Fatalf("GetUsage aug: %v", err)
	}
	sepRow, err := GetUsage(ctx, db, "u1", PeriodStart(sep))
	if err != nil {
		t.Fatalf("GetUsage sep: %v", err)
	}
	if augRow.TokenCount != 10 || sepRow.TokenCount != 20 {
		t.Fatalf("months must not share rows: aug=%+v sep=%+v", augRow, sepRow)
	}
	if augRow.ID == sepRow.ID {
		t.Fatalf("expected distinct rows per month")
	}
}

func TestGetUsage_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.UsagePeriod{})
	_, err := GetUsage(context.Background(), db, "nobody", PeriodStart(time.Now()))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddUsage_UsersAreIsolated(t *testing.T) {
	db := newRepoDB(t, &domain.UsagePeriod{})
	ctx := context.Background()
	now := time.Now().UTC()

	if err := AddUsage(ctx, db, "u1", 10, 0.1, now); err != nil {
		t.Fatalf("AddUsage u1: %v", err)
	}
	if err := AddUsage(ctx, db, "u2", 99, 0.9, now); err != nil {
		t.Fatalf("AddUsage u2: %v", err)
	}
	row, err := GetUsage(ctx, db, "u1", PeriodStart(now))
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if row.TokenCount != 10 {
		t.Fatalf("users must not share usage rows: %+v", row)
	}
}
