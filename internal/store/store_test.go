package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hooklog/internal/model"
)

func sampleRecord(requestID string, ts time.Time) model.Record {
	return model.Record{
		RequestID: requestID,
		Author:    "alice",
		Action:    model.ActionPush,
		ToBranch:  "main",
		Timestamp: model.FormatTimestamp(ts),
	}
}

func TestMemoryInsertAssignsStringIDs(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	id1, err := repo.Insert(ctx, sampleRecord("abc123", time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id2, err := repo.Insert(ctx, sampleRecord("abc123", time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id1 == "" || id2 == "" || id1 == id2 {
		t.Fatalf("expected distinct ids, got %q and %q", id1, id2)
	}
	if repo.Len() != 2 {
		t.Fatalf("request_id is not unique; expected 2 records, got %d", repo.Len())
	}
}

func TestMemoryRecentOrderAndCap(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	// inserted out of order
	for _, i := range []int{3, 14, 0, 7, 11, 1, 9, 2, 13, 5, 12, 4, 6, 10, 8} {
		if _, err := repo.Insert(ctx, sampleRecord(fmt.Sprintf("c%02d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatal(err)
		}
	}
	items, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != MaxRecent {
		t.Fatalf("expected %d items, got %d", MaxRecent, len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf("c%02d", 14-i)
		if item.RequestID != want {
			t.Fatalf("position %d: got %s want %s", i, item.RequestID, want)
		}
	}

	items, err = repo.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	items, err = repo.Recent(ctx, 500)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != MaxRecent {
		t.Fatalf("limit above cap must clamp, got %d", len(items))
	}
}

func TestMemoryRejectsInvalidRecords(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	bad := []model.Record{
		{},
		{RequestID: "x", Author: "a", Action: "DELETE", ToBranch: "main", Timestamp: "t"},
		{RequestID: "x", Author: "a", Action: model.ActionPush, FromBranch: model.StringPtr("dev"), ToBranch: "main", Timestamp: "t"},
	}
	for _, rec := range bad {
		if _, err := repo.Insert(ctx, rec); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", rec, err)
		}
	}
}

func TestDisabledRepositoryFailsExplicitly(t *testing.T) {
	repo := NewDisabledRepository(errors.New("connection refused"))
	ctx := context.Background()
	if _, err := repo.Insert(ctx, sampleRecord("x", time.Now())); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable on insert, got %v", err)
	}
	if _, err := repo.Recent(ctx, 10); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable on recent, got %v", err)
	}
	if err := repo.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable on ping, got %v", err)
	}
	if err := repo.Close(ctx); err != nil {
		t.Fatalf("close should be a no-op, got %v", err)
	}
}
