package reconcile

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/stretchr/testify/mock"
)

// fakeStore is an in-memory LocalStore. Records enumerate in insertion order.
type fakeStore struct {
	records []LocalRecord
	deletes [][]LocalID
}

func newFakeStore(keys ...any) *fakeStore {
	s := &fakeStore{}
	for i, key := range keys {
		s.add(LocalID(fmt.Sprintf("l%d", i)), key)
	}
	return s
}

func (s *fakeStore) add(id LocalID, key any) {
	s.records = append(s.records, LocalRecord{
		ID:    id,
		Value: key,
		Row:   map[string]any{"remote_id": key},
	})
}

func (s *fakeStore) Enumerate(_ context.Context, _ string, keyField string, scope Scope) ([]LocalRecord, error) {
	var out []LocalRecord
	for _, rec := range s.records {
		if scope != nil {
			ok, err := scope.Matches(rec.Row)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, LocalRecord{ID: rec.ID, Value: rec.Row[keyField], Row: maps.Clone(rec.Row)})
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, _ string, ids []LocalID) error {
	s.deletes = append(s.deletes, slices.Clone(ids))
	s.records = slices.DeleteFunc(s.records, func(rec LocalRecord) bool {
		return slices.Contains(ids, rec.ID)
	})
	return nil
}

func (s *fakeStore) ids() []LocalID {
	ids := make([]LocalID, len(s.records))
	for i, rec := range s.records {
		ids[i] = rec.ID
	}
	return ids
}

// txFakeStore adds Transaction to fakeStore, restoring the records on error.
type txFakeStore struct {
	*fakeStore
	transactions int
}

func (s *txFakeStore) Transaction(ctx context.Context, fn func(LocalStore) error) error {
	s.transactions++
	saved := slices.Clone(s.records)
	if err := fn(s.fakeStore); err != nil {
		s.records = saved
		return err
	}
	return nil
}

// mockStore is a testify mock of LocalStore for failure paths.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Enumerate(ctx context.Context, entity, keyField string, scope Scope) ([]LocalRecord, error) {
	args := m.Called(ctx, entity, keyField, scope)
	records, _ := args.Get(0).([]LocalRecord)
	return records, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, entity string, ids []LocalID) error {
	args := m.Called(ctx, entity, ids)
	return args.Error(0)
}

// recorder collects callback invocations.
type recorder struct {
	inserts []Key
	updates []LocalID
	calls   []string
}

func (r *recorder) callbacks(keyPath string) Callbacks {
	return Callbacks{
		OnInsert: func(_ context.Context, _ LocalStore, rec Record) error {
			v, _ := RemoteValue(rec, keyPath)
			key := Normalize(v, KeySpec{})
			r.inserts = append(r.inserts, key)
			r.calls = append(r.calls, "insert "+key.String())
			return nil
		},
		OnUpdate: func(_ context.Context, _ LocalStore, rec Record, id LocalID) error {
			r.updates = append(r.updates, id)
			r.calls = append(r.calls, "update "+string(id))
			return nil
		},
	}
}

func users(ids ...any) []Record {
	records := make([]Record, len(ids))
	for i, id := range ids {
		records[i] = Record{"id": id, "name": fmt.Sprintf("user %v", id)}
	}
	return records
}

func userRequest() Request {
	return Request{Entity: "users", LocalKey: "remote_id", RemoteKey: "id"}
}
