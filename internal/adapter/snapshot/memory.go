package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// MemorySink keeps the latest table per snapshot name. It is safe for
// concurrent use by the pipeline and the HTTP server.
type MemorySink struct {
	mu     sync.RWMutex
	tables map[string]domain.Table
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{tables: make(map[string]domain.Table)}
}

func (s *MemorySink) WriteSnapshot(_ context.Context, t domain.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Name] = t
	return nil
}

// Snapshot returns the latest table with the given name.
func (s *MemorySink) Snapshot(name string) (domain.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

// Names lists the stored snapshot names in alphabetical order.
func (s *MemorySink) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
