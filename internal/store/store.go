package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"hooklog/internal/model"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("event store unavailable")
)

// MaxRecent caps how many records a single Recent call returns.
const MaxRecent = 10

type Repository interface {
	Insert(ctx context.Context, rec model.Record) (string, error)
	Recent(ctx context.Context, limit int) ([]model.StoredRecord, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type MemoryRepository struct {
	mu      sync.RWMutex
	records []model.StoredRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Insert(_ context.Context, rec model.Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, model.StoredRecord{ID: id, Record: rec})
	return id, nil
}

func (m *MemoryRepository) Recent(_ context.Context, limit int) ([]model.StoredRecord, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	items := make([]model.StoredRecord, 0, len(m.records))
	// newest insert first so equal timestamps keep insertion recency
	for i := len(m.records) - 1; i >= 0; i-- {
		items = append(items, m.records[i])
	}
	m.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MemoryRepository) Ping(context.Context) error  { return nil }
func (m *MemoryRepository) Close(context.Context) error { return nil }

// DisabledRepository stands in for a store that could not be reached at
// startup. Every call fails with ErrUnavailable.
type DisabledRepository struct {
	Cause error
}

func NewDisabledRepository(cause error) DisabledRepository {
	return DisabledRepository{Cause: cause}
}

func (d DisabledRepository) err() error {
	if d.Cause == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, d.Cause)
}

func (d DisabledRepository) Insert(context.Context, model.Record) (string, error) {
	return "", d.err()
}

func (d DisabledRepository) Recent(context.Context, int) ([]model.StoredRecord, error) {
	return nil, d.err()
}

func (d DisabledRepository) Ping(context.Context) error  { return d.err() }
func (d DisabledRepository) Close(context.Context) error { return nil }

func validateRecord(rec model.Record) error {
	if rec.RequestID == "" || rec.Author == "" || rec.ToBranch == "" || rec.Timestamp == "" {
		return ErrInvalidInput
	}
	if !rec.Action.Valid() {
		return ErrInvalidInput
	}
	if rec.Action == model.ActionPush && rec.FromBranch != nil {
		return ErrInvalidInput
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxRecent {
		return MaxRecent
	}
	return limit
}
