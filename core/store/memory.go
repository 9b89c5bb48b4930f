package store

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"record-sync/core/reconcile"

	"github.com/google/uuid"
)

// MemoryStore keeps records in memory. Records of an entity enumerate in
// insertion order. It backs tests and dry runs that have no database.
type MemoryStore struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	entities map[string]*memoryTable
	newID    func() reconcile.LocalID
}

type memoryTable struct {
	order []reconcile.LocalID
	rows  map[reconcile.LocalID]map[string]any
}

func (t *memoryTable) clone() *memoryTable {
	c := &memoryTable{
		order: append([]reconcile.LocalID(nil), t.order...),
		rows:  make(map[reconcile.LocalID]map[string]any, len(t.rows)),
	}
	for id, row := range t.rows {
		c.rows[id] = maps.Clone(row)
	}
	return c
}

// NewMemoryStore creates an empty store issuing random UUID identifiers.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entities: make(map[string]*memoryTable),
		newID: func() reconcile.LocalID {
			return reconcile.LocalID(uuid.NewString())
		},
	}
}

func (s *MemoryStore) table(entity string) *memoryTable {
	t, ok := s.entities[entity]
	if !ok {
		t = &memoryTable{rows: make(map[reconcile.LocalID]map[string]any)}
		s.entities[entity] = t
	}
	return t
}

// Transaction serializes units of work and restores the previous state when
// fn fails.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(reconcile.LocalStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := make(map[string]*memoryTable, len(s.entities))
	for name, t := range s.entities {
		saved[name] = t.clone()
	}
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.entities = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// Enumerate returns the records of entity in insertion order.
func (s *MemoryStore) Enumerate(ctx context.Context, entity, keyField string, scope reconcile.Scope) ([]reconcile.LocalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.entities[entity]
	if !ok {
		return nil, nil
	}

	records := make([]reconcile.LocalRecord, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if scope != nil {
			matched, err := scope.Matches(row)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}
		}
		records = append(records, reconcile.LocalRecord{
			ID:    id,
			Value: row[keyField],
			Row:   maps.Clone(row),
		})
	}
	return records, nil
}

// Delete removes records by identifier. Unknown identifiers are ignored.
func (s *MemoryStore) Delete(ctx context.Context, entity string, ids []reconcile.LocalID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.entities[entity]
	if !ok {
		return nil
	}
	drop := make(map[reconcile.LocalID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
		delete(t.rows, id)
	}
	kept := t.order[:0]
	for _, id := range t.order {
		if _, gone := drop[id]; !gone {
			kept = append(kept, id)
		}
	}
	t.order = kept
	return nil
}

// Insert stores a copy of values under a new identifier.
func (s *MemoryStore) Insert(ctx context.Context, entity string, values map[string]any) (reconcile.LocalID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(entity)
	id := s.newID()
	t.rows[id] = maps.Clone(values)
	t.order = append(t.order, id)
	return id, nil
}

// Update merges values into an existing record.
func (s *MemoryStore) Update(ctx context.Context, entity string, id reconcile.LocalID, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.entities[entity]
	if !ok {
		return fmt.Errorf("update %s %s: record not found", entity, id)
	}
	row, ok := t.rows[id]
	if !ok {
		return fmt.Errorf("update %s %s: record not found", entity, id)
	}
	maps.Copy(row, values)
	return nil
}

// Columns returns nil: a memory store accepts any attribute.
func (s *MemoryStore) Columns(context.Context, string) ([]string, error) {
	return nil, nil
}

// Get returns a copy of one record.
func (s *MemoryStore) Get(entity string, id reconcile.LocalID) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.entities[entity]
	if !ok {
		return nil, false
	}
	row, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(row), true
}

// Count returns the number of records of entity.
func (s *MemoryStore) Count(entity string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.entities[entity]; ok {
		return len(t.order)
	}
	return 0
}
