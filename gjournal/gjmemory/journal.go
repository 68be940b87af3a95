// Package gjmemory is an in-memory [gjournal.Journal].
package gjmemory

import (
	"context"
	"sync"

	"github.com/gordian-engine/gtwdt/gjournal"
)

type Journal struct {
	mu      sync.RWMutex
	records []gjournal.Record
}

func NewJournal() *Journal {
	return new(Journal)
}

func (j *Journal) Append(_ context.Context, r gjournal.Record) (gjournal.Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	r.Seq = uint64(len(j.records)) + 1
	j.records = append(j.records, r)
	return r, nil
}

func (j *Journal) Recent(_ context.Context, limit int) ([]gjournal.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	n := len(j.records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]gjournal.Record, 0, n)
	for i := len(j.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.records[i])
	}
	return out, nil
}

func (j *Journal) Close() error {
	return nil
}
