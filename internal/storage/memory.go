package storage

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"cgmdose/pkg/contracts/domain"
)

// Memory is an in-process Gateway keyed by timestamp. It backs dry runs and
// tests.
type Memory struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	records map[int64]domain.Record
}

var _ Gateway = (*Memory)(nil)

// NewMemory creates an empty store. A nil clock uses the real clock.
func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		clock:   clock,
		records: make(map[int64]domain.Record),
	}
}

// InsertRecords stores the rows whose timestamp is not yet present.
func (m *Memory) InsertRecords(ctx context.Context, t domain.Table) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var inserted int64
	for _, r := range t.Records {
		key := r.DateTime.UnixNano()
		if _, ok := m.records[key]; ok {
			continue
		}
		m.records[key] = canonical(r)
		inserted++
	}
	return inserted, nil
}

// ReadAll returns every record ordered by timestamp.
func (m *Memory) ReadAll(ctx context.Context) (domain.Table, error) {
	return m.read(ctx, func(domain.Record) bool { return true })
}

// ReadDaysFromNow returns the records on or after Cutoff(now, days).
func (m *Memory) ReadDaysFromNow(ctx context.Context, days int) (domain.Table, error) {
	cutoff, err := Cutoff(m.clock.Now(), days)
	if err != nil {
		return domain.Table{}, err
	}
	return m.read(ctx, func(r domain.Record) bool { return !r.DateTime.Before(cutoff) })
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close is a no-op.
func (m *Memory) Close() {}

func (m *Memory) read(ctx context.Context, keep func(domain.Record) bool) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}

	m.mu.RLock()
	records := make([]domain.Record, 0, len(m.records))
	for _, r := range m.records {
		if keep(r) {
			records = append(records, r)
		}
	}
	m.mu.RUnlock()

	return domain.NewTable(records).SortByDateTime(false), nil
}

// canonical drops the derived values, which are never persisted.
func canonical(r domain.Record) domain.Record {
	return domain.Record{
		DateTime:  r.DateTime.UTC(),
		Glucose:   r.Glucose,
		Carbs:     r.Carbs,
		Bolus:     r.Bolus,
		Basal:     r.Basal,
		Hour:      r.Hour,
		HourGroup: r.HourGroup,
	}
}
