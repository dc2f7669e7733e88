// Package store provides the persistence collaborator for synthesised log
// records: a bounded create/query store the HTTP surface delegates to.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
)

// ErrUnavailable is returned when the store cannot serve requests; the API
// layer degrades the persistence routes instead of aborting.
var ErrUnavailable = errors.New("log store unavailable")

// Query filters a read. Zero values leave the corresponding dimension
// unconstrained.
type Query struct {
	Level observability.Level
	Type  string
	Since time.Time
	Limit int
}

// Store is the persistence capability surface.
type Store interface {
	Create(ctx context.Context, event observability.Event) error
	Query(ctx context.Context, q Query) ([]observability.Event, error)
}

// DefaultCapacity bounds the in-memory store when no capacity is configured.
const DefaultCapacity = 1000

// Memory is a capacity-bounded in-memory store. The oldest records are
// evicted once the capacity is reached; queries return newest first.
type Memory struct {
	mu       sync.RWMutex
	records  []observability.Event
	capacity int
}

// NewMemory builds an in-memory store holding at most capacity records.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{capacity: capacity}
}

// Create implements Store.
func (m *Memory) Create(_ context.Context, event observability.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, event.Clone())
	if len(m.records) > m.capacity {
		overflow := len(m.records) - m.capacity
		m.records = append(m.records[:0:0], m.records[overflow:]...)
	}
	return nil
}

// Query implements Store, returning matching records newest first.
func (m *Memory) Query(_ context.Context, q Query) ([]observability.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 || limit > m.capacity {
		limit = m.capacity
	}

	results := make([]observability.Event, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(results) < limit; i-- {
		record := m.records[i]
		if q.Level != "" && record.Level != q.Level {
			continue
		}
		if q.Type != "" && record.Type != q.Type {
			continue
		}
		if !q.Since.IsZero() && record.Timestamp.Before(q.Since) {
			continue
		}
		results = append(results, record.Clone())
	}
	return results, nil
}

// Len reports the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

var _ Store = (*Memory)(nil)
