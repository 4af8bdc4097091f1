package eventlog

import (
	"context"
	"sync"
)

// MemoryJournal is an in-process journal, used in tests and as the default
// when no persistent backend is configured.
type MemoryJournal struct {
	mu      sync.RWMutex
	records []Record
	seq     uint64
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append stores a record in memory.
func (j *MemoryJournal) Append(kind Kind, payload any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, err := newRecord(j.seq, kind, payload)
	if err != nil {
		return err
	}
	j.records = append(j.records, rec)
	j.seq++
	return nil
}

// Read returns all records with Seq >= since.
func (j *MemoryJournal) Read(_ context.Context, since uint64) ([]Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []Record
	for _, rec := range j.records {
		if rec.Seq >= since {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Close is a no-op.
func (j *MemoryJournal) Close() error { return nil }

// Len returns the number of stored records.
func (j *MemoryJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}
